package store

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"forge/chain"
	"forge/policy"
)

// Memory is the reference in-memory Store, grounded on
// blockchain/store/memory.go's mutex-guarded chain slice and account map.
// It additionally satisfies chain.ChainHandle (for BlockMetadataBuilder
// and Policy) and policy.StateView (for transaction validation), and
// fronts GetTxNonce with an LRU cache so repeated gather calls against a
// hot signer set avoid re-walking account state.
type Memory struct {
	mu       sync.RWMutex
	id       string
	blocks   []*chain.Block
	accounts map[chain.Address]*policy.AccountState
	execs    []TxExecution

	nonceCache *lru.Cache
}

// NewMemory constructs an empty in-memory store for the given chain ID.
func NewMemory(chainID string) *Memory {
	cache, _ := lru.New(4096)
	return &Memory{
		id:         chainID,
		accounts:   make(map[chain.Address]*policy.AccountState),
		nonceCache: cache,
	}
}

// AddBlock appends block to the chain. Validation is the caller's job.
func (m *Memory) AddBlock(block *chain.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, block)
	m.nonceCache.Purge()
}

// SetAccount seeds or overwrites an account's balance/nonce, for genesis
// setup and tests.
func (m *Memory) SetAccount(addr chain.Address, state policy.AccountState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[addr] = &state
	m.nonceCache.Remove(addr)
}

// --- chain.ChainHandle ---

func (m *Memory) Count() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.blocks))
}

func (m *Memory) Tip() *chain.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.blocks) == 0 {
		return nil
	}
	return m.blocks[len(m.blocks)-1]
}

func (m *Memory) ID() string { return m.id }

func (m *Memory) BlockAt(index uint64) *chain.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index >= uint64(len(m.blocks)) {
		return nil
	}
	return m.blocks[index]
}

// --- Store ---

func (m *Memory) IndexBlockHash(chainID string, index uint64) *chain.Hash32 {
	if chainID != m.id {
		return nil
	}
	blk := m.BlockAt(index)
	if blk == nil {
		return nil
	}
	h := blk.Hash
	return &h
}

func (m *Memory) GetTxNonce(chainID string, signer chain.Address) uint64 {
	if chainID != m.id {
		return 0
	}
	if v, ok := m.nonceCache.Get(signer); ok {
		return v.(uint64)
	}

	m.mu.RLock()
	acct, ok := m.accounts[signer]
	m.mu.RUnlock()

	var next uint64
	if ok {
		next = acct.Nonce
	}
	m.nonceCache.Add(signer, next)
	return next
}

func (m *Memory) UpdateTxExecutions(execs []TxExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execs = append(m.execs, execs...)
	for _, e := range execs {
		if !e.Success {
			continue
		}
		acct, ok := m.accounts[e.Signer]
		if !ok {
			acct = &policy.AccountState{}
			m.accounts[e.Signer] = acct
		}
		if e.Nonce+1 > acct.Nonce {
			acct.Nonce = e.Nonce + 1
		}
	}
	return nil
}

// Executions returns a copy of all persisted executions, for tests.
func (m *Memory) Executions() []TxExecution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TxExecution, len(m.execs))
	copy(out, m.execs)
	return out
}

// --- policy.StateView ---

func (m *Memory) Account(addr chain.Address) (policy.AccountState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[addr]
	if !ok {
		return policy.AccountState{}, false
	}
	return *acct, true
}
