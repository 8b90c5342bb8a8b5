// Package metadata implements BlockMetadataBuilder (spec.md §4.A):
// a pure function from chain/store/policy state to a BlockMetadata.
package metadata

import (
	"time"

	"forge/chain"
	"forge/policy"
	"forge/store"
)

// Builder computes BlockMetadata for the next block. Pure given its
// inputs; no side effects, grounded on blockchain/forge.go's header
// assembly prologue (version/previous-hash/height) minus the mining step.
type Builder struct {
	Policy policy.Policy
	Store  store.Store
}

// NewBuilder constructs a Builder over the given Policy and Store.
func NewBuilder(p policy.Policy, s store.Store) *Builder {
	return &Builder{Policy: p, Store: s}
}

// Build computes the metadata for the block that would follow handle's
// current tip, attributed to proposerKey and stamped with timestamp.
func (b *Builder) Build(handle chain.ChainHandle, proposerKey *chain.Address, timestamp time.Time) chain.BlockMetadata {
	count := handle.Count()
	difficulty := b.Policy.NextBlockDifficulty(handle)

	var prevTotal *chain.TotalDifficulty
	if tip := handle.Tip(); tip != nil {
		prevTotal = tip.Metadata().TotalDifficulty
	}
	total := chain.AddWork(prevTotal, chain.WorkForDifficulty(difficulty))

	var previousHash *chain.Hash32
	if count > 0 {
		previousHash = b.Store.IndexBlockHash(handle.ID(), count-1)
	}

	return chain.BlockMetadata{
		Index:           count,
		Difficulty:      difficulty,
		TotalDifficulty: total,
		PublicKey:       proposerKey,
		PreviousHash:    previousHash,
		Timestamp:       timestamp,
	}
}
