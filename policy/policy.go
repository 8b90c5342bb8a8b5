// Package policy defines the consensus policy collaborator consumed by
// the block proposal core (spec.md §6) and a reference implementation
// grounded in the teacher's difficulty-retargeting and transaction
// validation rules.
package policy

import "forge/chain"

// Violation describes why a staged transaction failed validation. Kept
// as a structured value (rather than a bare error) so TxGatherer can log
// the kind before evicting the transaction from the staging pool.
type Violation struct {
	Kind   string
	Detail string
}

func (v *Violation) Error() string { return v.Kind + ": " + v.Detail }

// ChainView is the read surface Policy needs from the running chain.
// Identical to chain.ChainHandle; named separately so this package does
// not force every caller to depend on the exact handle shape evolving
// in lockstep.
type ChainView = chain.ChainHandle

// Policy is the consensus-policy collaborator of spec.md §6.
type Policy interface {
	MaxBlockBytes(index uint64) int64
	MaxTransactionsPerBlock(index uint64) int
	MaxTransactionsPerSignerPerBlock(index uint64) int
	MinTransactionsPerBlock(index uint64) int
	NextBlockDifficulty(view ChainView) uint64
	ValidateNextBlockTx(view ChainView, tx chain.Transaction) *Violation
}
