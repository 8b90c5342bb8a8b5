package stage

import (
	"bytes"
	"sort"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"forge/chain"
)

// key is the (signer, nonce) composite a staged transaction lives under.
// Keying the backing treemap on this pair gives per-signer nonce order
// for free from the map's natural iteration order (spec.md §4.C step 1).
type key struct {
	signer chain.Address
	nonce  uint64
}

func compareKeys(a, b interface{}) int {
	ka, kb := a.(key), b.(key)
	if c := bytes.Compare(ka.signer[:], kb.signer[:]); c != 0 {
		return c
	}
	switch {
	case ka.nonce < kb.nonce:
		return -1
	case ka.nonce > kb.nonce:
		return 1
	default:
		return 0
	}
}

// Memory is the reference in-memory StagePolicy. A transaction is kept
// under its (signer, nonce) key; a second Add for the same key replaces
// the first (last write wins — spec.md §9's documented ambiguity for
// equal-(signer,nonce) staged duplicates).
type Memory struct {
	mu   sync.Mutex
	id   string
	txs  *treemap.Map
}

// NewMemory constructs an empty staging pool for the given chain ID.
func NewMemory(chainID string) *Memory {
	return &Memory{id: chainID, txs: treemap.NewWith(compareKeys)}
}

// Add stages a transaction, overwriting any existing entry with the same
// (signer, nonce).
func (m *Memory) Add(tx chain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs.Put(key{signer: tx.Signer, nonce: tx.Nonce}, tx)
}

func (m *Memory) ListStaged(chainID string, priority Priority) []chain.Transaction {
	if chainID != m.id {
		return nil
	}

	m.mu.Lock()
	values := m.txs.Values()
	m.mu.Unlock()

	out := make([]chain.Transaction, len(values))
	for i, v := range values {
		out[i] = v.(chain.Transaction)
	}
	if priority == nil {
		return out
	}

	// Apply priority only between different signers (the stable sort
	// keeps (signer, nonce) order where priority ranks neither first); a
	// signer's own nonce order is mandatory regardless of priority
	// (spec.md §4.C step 1).
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Signer == out[j].Signer {
			return out[i].Nonce < out[j].Nonce
		}
		return priority(out[i], out[j])
	})
	return out
}

func (m *Memory) Ignore(chainID string, id chain.TxID) {
	if chainID != m.id {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.txs.Keys() {
		v, _ := m.txs.Get(k)
		if v.(chain.Transaction).ID == id {
			m.txs.Remove(k)
			return
		}
	}
}

// Len reports the number of currently staged transactions, for tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs.Size()
}
