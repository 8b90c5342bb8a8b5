package stage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge/chain"
	"forge/stage"
)

func TestMemory_ListStaged_NonceOrderWithinSigner(t *testing.T) {
	m := stage.NewMemory("c1")
	signer := chain.Address{1}
	m.Add(chain.Transaction{ID: chain.Hash32{3}, Signer: signer, Nonce: 3})
	m.Add(chain.Transaction{ID: chain.Hash32{1}, Signer: signer, Nonce: 1})
	m.Add(chain.Transaction{ID: chain.Hash32{2}, Signer: signer, Nonce: 2})

	out := m.ListStaged("c1", nil)
	assert.Equal(t, []uint64{1, 2, 3}, nonces(out))
}

func TestMemory_ListStaged_PriorityOnlyTieBreaksAcrossSigners(t *testing.T) {
	m := stage.NewMemory("c1")
	a := chain.Address{1}
	b := chain.Address{2}
	m.Add(chain.Transaction{ID: chain.Hash32{1}, Signer: a, Nonce: 5})
	m.Add(chain.Transaction{ID: chain.Hash32{2}, Signer: b, Nonce: 1})

	// Priority says b before a regardless of nonce.
	priority := func(x, y chain.Transaction) bool { return x.Signer == b }
	out := m.ListStaged("c1", priority)
	assert.Equal(t, b, out[0].Signer)
	assert.Equal(t, a, out[1].Signer)
}

func TestMemory_Add_SameKeyOverwrites(t *testing.T) {
	m := stage.NewMemory("c1")
	signer := chain.Address{1}
	m.Add(chain.Transaction{ID: chain.Hash32{1}, Signer: signer, Nonce: 1})
	m.Add(chain.Transaction{ID: chain.Hash32{9}, Signer: signer, Nonce: 1})

	assert.Equal(t, 1, m.Len())
	out := m.ListStaged("c1", nil)
	assert.Equal(t, chain.Hash32{9}, out[0].ID)
}

func TestMemory_Ignore_RemovesByID(t *testing.T) {
	m := stage.NewMemory("c1")
	signer := chain.Address{1}
	m.Add(chain.Transaction{ID: chain.Hash32{1}, Signer: signer, Nonce: 1})
	assert.Equal(t, 1, m.Len())

	m.Ignore("c1", chain.Hash32{1})
	assert.Equal(t, 0, m.Len())
}

func TestMemory_ListStaged_WrongChainID(t *testing.T) {
	m := stage.NewMemory("c1")
	m.Add(chain.Transaction{ID: chain.Hash32{1}, Signer: chain.Address{1}, Nonce: 1})
	assert.Nil(t, m.ListStaged("c2", nil))
}

func nonces(txs []chain.Transaction) []uint64 {
	out := make([]uint64, len(txs))
	for i, tx := range txs {
		out[i] = tx.Nonce
	}
	return out
}
