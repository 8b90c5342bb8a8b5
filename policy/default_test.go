package policy_test

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/chain"
	"forge/policy"
	"forge/store"
)

func TestDefault_ValidateNextBlockTx_Coinbase(t *testing.T) {
	st := store.NewMemory("c1")
	pol := policy.NewDefault(policy.DefaultConfig(), st)

	tx := chain.Transaction{ID: chain.Hash32{1}, Signer: chain.Address{}}
	assert.Nil(t, pol.ValidateNextBlockTx(st, tx))
}

func TestDefault_ValidateNextBlockTx_BadSignature(t *testing.T) {
	st := store.NewMemory("c1")
	pol := policy.NewDefault(policy.DefaultConfig(), st)

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	var signer chain.Address
	copy(signer[:], pub)
	st.SetAccount(signer, policy.AccountState{Balance: 100})

	tx := chain.Transaction{ID: chain.Hash32{1}, Signer: signer}
	v := pol.ValidateNextBlockTx(st, tx)
	require.NotNil(t, v)
	assert.Equal(t, "bad-signature", v.Kind)
}

func TestDefault_ValidateNextBlockTx_GoodSignatureUnknownSender(t *testing.T) {
	st := store.NewMemory("c1")
	pol := policy.NewDefault(policy.DefaultConfig(), st)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	var signer chain.Address
	copy(signer[:], pub)

	id := chain.Hash32{1, 2, 3}
	sig := ed25519.Sign(priv, id[:])
	tx := chain.Transaction{ID: id, Signer: signer}
	copy(tx.Signature[:], sig)

	v := pol.ValidateNextBlockTx(st, tx)
	require.NotNil(t, v)
	assert.Equal(t, "unknown-sender", v.Kind)
}

func TestDefault_NextBlockDifficulty_BelowWindowIsOne(t *testing.T) {
	st := store.NewMemory("c1")
	pol := policy.NewDefault(policy.DefaultConfig(), st)
	assert.Equal(t, uint64(1), pol.NextBlockDifficulty(st))

	for i := 0; i < 10; i++ {
		st.AddBlock(&chain.Block{PreEvaluation: chain.PreEvaluationBlock{
			Content: chain.BlockContent{Metadata: chain.BlockMetadata{
				Index: uint64(i), Difficulty: 1, Timestamp: time.Unix(int64(i), 0),
			}},
		}})
	}
	assert.Equal(t, uint64(1), pol.NextBlockDifficulty(st))
}
