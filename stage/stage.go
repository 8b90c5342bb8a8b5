// Package stage defines the staging-pool collaborator of spec.md §6 and
// a reference in-memory implementation grounded in paralin-inca-go's
// mempool package.
package stage

import "forge/chain"

// Priority is a less-fn ordering staged transactions of different
// signers; within one signer, ascending nonce order always applies
// regardless of Priority. Grounded on paralin-inca-go's
// mempool.Orderer, adapted from an async float64-priority function to a
// synchronous less-fn since gather is synchronous (spec.md §5).
type Priority func(a, b chain.Transaction) bool

// StagePolicy is the staging-pool collaborator of spec.md §6.
type StagePolicy interface {
	// ListStaged returns an ordered snapshot of staged transactions,
	// sorted by priority if given, ties broken by (signer, nonce)
	// ascending; within a signer, nonce order is mandatory regardless
	// of priority.
	ListStaged(chainID string, priority Priority) []chain.Transaction
	// Ignore permanently evicts a transaction from the staging pool.
	Ignore(chainID string, id chain.TxID)
}
