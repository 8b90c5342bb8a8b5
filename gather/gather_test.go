package gather_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/chain"
	"forge/fixtures"
	"forge/gather"
	"forge/policy"
	"forge/sizeest"
	"forge/stage"
	"forge/store"
)

func newGatherer(t *testing.T) (*gather.Gatherer, *stage.Memory, *store.Memory) {
	t.Helper()
	st := store.NewMemory("c1")
	sp := stage.NewMemory("c1")
	pol := policy.NewDefault(policy.DefaultConfig(), st)
	est := sizeest.NewEstimator(chain.NewDefaultCodec())
	g := gather.NewGatherer(sp, st, pol, est, nil)
	return g, sp, st
}

var now = time.Unix(1_700_000_000, 0)

func transfer(from fixtures.Account, nonce uint64, size int) chain.Transaction {
	tx := fixtures.Transfer(from, chain.Address{0xff}, 1, nonce, now)
	tx.Size = size
	return tx
}

// S1: happy path — sequential nonces for one signer all admitted in order.
func TestGather_HappyPath(t *testing.T) {
	g, sp, st := newGatherer(t)
	accts := fixtures.Accounts(1)
	signer := accts[0].Address()
	st.SetAccount(signer, policy.AccountState{Balance: 1000, Nonce: 0})

	for n := uint64(0); n < 3; n++ {
		sp.Add(transfer(accts[0], n, 64))
	}

	meta := chain.BlockMetadata{Index: 1}
	out := g.Gather(st, meta, gather.Options{
		MaxBlockBytes: 1 << 20, MaxTransactions: 10, MaxTransactionsPerSigner: 10,
		Deadline: time.Second,
	})

	require.Len(t, out, 3)
	assert.Equal(t, []uint64{0, 1, 2}, nonces(out))
}

// S2: stale and gapped nonces are skipped, not evicted.
func TestGather_SkipsStaleAndGapNonces(t *testing.T) {
	g, sp, st := newGatherer(t)
	accts := fixtures.Accounts(1)
	signer := accts[0].Address()
	st.SetAccount(signer, policy.AccountState{Balance: 1000, Nonce: 2}) // next expected = 2

	sp.Add(transfer(accts[0], 1, 64)) // stale
	sp.Add(transfer(accts[0], 5, 64)) // gap
	sp.Add(transfer(accts[0], 2, 64)) // candidate

	meta := chain.BlockMetadata{Index: 1}
	out := g.Gather(st, meta, gather.Options{
		MaxBlockBytes: 1 << 20, MaxTransactions: 10, MaxTransactionsPerSigner: 10,
		Deadline: time.Second,
	})

	require.Len(t, out, 1)
	assert.Equal(t, uint64(2), out[0].Nonce)
	// Skipped transactions remain staged (not evicted).
	assert.Equal(t, 3, sp.Len())
}

// S3: per-signer cap stops admitting further transactions for that signer
// but does not affect other signers.
func TestGather_PerSignerCap(t *testing.T) {
	g, sp, st := newGatherer(t)
	accts := fixtures.Accounts(2)
	a, b := accts[0].Address(), accts[1].Address()
	st.SetAccount(a, policy.AccountState{Balance: 1000})
	st.SetAccount(b, policy.AccountState{Balance: 1000})

	for n := uint64(0); n < 5; n++ {
		sp.Add(transfer(accts[0], n, 64))
	}
	sp.Add(transfer(accts[1], 0, 64))

	meta := chain.BlockMetadata{Index: 1}
	out := g.Gather(st, meta, gather.Options{
		MaxBlockBytes: 1 << 20, MaxTransactions: 100, MaxTransactionsPerSigner: 2,
		Deadline: time.Second,
	})

	countA := 0
	for _, tx := range out {
		if tx.Signer == a {
			countA++
		}
	}
	assert.Equal(t, 2, countA)
	assert.Contains(t, signers(out), b)
}

// S4: a byte cap stops admitting a transaction that would overflow it but
// does not break the loop over what remains reachable.
func TestGather_ByteCapSkipsWithoutBreaking(t *testing.T) {
	g, sp, st := newGatherer(t)
	accts := fixtures.Accounts(2)
	a, b := accts[0].Address(), accts[1].Address()
	st.SetAccount(a, policy.AccountState{Balance: 1000})
	st.SetAccount(b, policy.AccountState{Balance: 1000})

	sp.Add(transfer(accts[0], 0, 900))
	sp.Add(transfer(accts[0], 1, 10))
	sp.Add(transfer(accts[1], 0, 10))

	est := sizeest.NewEstimator(chain.NewDefaultCodec())
	meta := chain.BlockMetadata{Index: 1}
	base := est.Length(est.Empty(meta))

	out := g.Gather(st, meta, gather.Options{
		MaxBlockBytes: int64(base + 50), MaxTransactions: 100, MaxTransactionsPerSigner: 100,
		Deadline: time.Second,
	})

	// The 900-byte tx from a cannot fit; nonce continuity then blocks a's
	// nonce 1 from being admitted (it depends on nonce 0 having landed).
	// The loop keeps going, so b's small tx is still admitted.
	require.Len(t, out, 1)
	assert.Equal(t, b, out[0].Signer)
}

// S5: InsufficientTransactions is the Proposer's concern, not the
// gatherer's — Gather always returns normally, even empty.
func TestGather_ReturnsEmptyWithoutError(t *testing.T) {
	g, _, st := newGatherer(t)
	meta := chain.BlockMetadata{Index: 1}
	out := g.Gather(st, meta, gather.Options{
		MaxBlockBytes: 1 << 20, MaxTransactions: 10, MaxTransactionsPerSigner: 10,
	})
	assert.Empty(t, out)
}

func TestGather_EvictsPolicyViolations(t *testing.T) {
	g, sp, st := newGatherer(t)
	accts := fixtures.Accounts(1)
	// Account never funded/created: Policy.ValidateNextBlockTx rejects
	// as unknown-sender, and Gather must evict it from staging.
	sp.Add(transfer(accts[0], 0, 64))

	meta := chain.BlockMetadata{Index: 1}
	out := g.Gather(st, meta, gather.Options{
		MaxBlockBytes: 1 << 20, MaxTransactions: 10, MaxTransactionsPerSigner: 10,
	})

	assert.Empty(t, out)
	assert.Equal(t, 0, sp.Len())
}

func nonces(txs []chain.Transaction) []uint64 {
	out := make([]uint64, len(txs))
	for i, tx := range txs {
		out[i] = tx.Nonce
	}
	return out
}

func signers(txs []chain.Transaction) []chain.Address {
	out := make([]chain.Address, len(txs))
	for i, tx := range txs {
		out[i] = tx.Signer
	}
	return out
}
