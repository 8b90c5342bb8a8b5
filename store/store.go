// Package store defines the persistent-store collaborator of spec.md §6
// and a reference in-memory implementation grounded in the teacher's
// blockchain/store package.
package store

import "forge/chain"

// TxExecution is the persisted record of one transaction's execution
// within a block, derived by the Proposer from an ActionEvaluation and
// written back via UpdateTxExecutions.
type TxExecution struct {
	BlockIndex uint64
	TxID       chain.TxID
	Signer     chain.Address
	Nonce      uint64
	Success    bool
	Detail     string
}

// Store is the persistent-store collaborator of spec.md §6.
type Store interface {
	// IndexBlockHash returns the hash of the block at index within
	// chainID, or nil if no such block exists.
	IndexBlockHash(chainID string, index uint64) *chain.Hash32
	// GetTxNonce returns the next expected nonce for signer (0 if none).
	GetTxNonce(chainID string, signer chain.Address) uint64
	// UpdateTxExecutions persists the given executions.
	UpdateTxExecutions(execs []TxExecution) error
}
