package policy

import (
	"crypto/ed25519"

	"forge/chain"
)

// AccountState is the minimal balance/nonce view Default needs to
// validate a transaction's affordability, grounded in
// blockchain/validation.go's AccountState lookups.
type AccountState struct {
	Balance uint64
	Nonce   uint64
}

// StateView resolves an address's current account state for validation.
// A missing account reports ok == false.
type StateView interface {
	Account(addr chain.Address) (AccountState, bool)
}

// Config bounds block construction. All three caps and the minimum are
// expressed as constant functions of index here; a real deployment might
// vary them by height (spec.md §6 takes index as a parameter for exactly
// that reason), so Default still threads index through even though this
// reference implementation ignores it.
type Config struct {
	MaxBlockBytes            int64
	MaxTransactionsPerBlock  int
	MaxTransactionsPerSigner int
	MinTransactionsPerBlock  int
}

// DefaultConfig returns sane caps for a demo/test chain.
func DefaultConfig() Config {
	return Config{
		MaxBlockBytes:            1 << 20,
		MaxTransactionsPerBlock:  5000,
		MaxTransactionsPerSigner: 500,
		MinTransactionsPerBlock:  0,
	}
}

// Default is the reference Policy, grounded on blockchain/difficulty.go's
// GetTargetDifficulty (2016-block retarget window, ±4x clamp, floor 1)
// and blockchain/validation.go's ValidateTransaction (signature, balance,
// nonce checks).
type Default struct {
	cfg   Config
	state StateView
}

// NewDefault constructs a Default policy over the given state view.
func NewDefault(cfg Config, state StateView) *Default {
	return &Default{cfg: cfg, state: state}
}

func (d *Default) MaxBlockBytes(uint64) int64                { return d.cfg.MaxBlockBytes }
func (d *Default) MaxTransactionsPerBlock(uint64) int         { return d.cfg.MaxTransactionsPerBlock }
func (d *Default) MaxTransactionsPerSignerPerBlock(uint64) int {
	return d.cfg.MaxTransactionsPerSigner
}
func (d *Default) MinTransactionsPerBlock(uint64) int { return d.cfg.MinTransactionsPerBlock }

// NextBlockDifficulty retargets every RecalculationFrequency blocks,
// adjusting by the ratio of actual to expected elapsed time, clamped to
// a 4x swing in either direction and never below 1.
func (d *Default) NextBlockDifficulty(view ChainView) uint64 {
	height := view.Count()
	if height < chain.RecalculationFrequency {
		return 1
	}

	lastAdjustment := (height / chain.RecalculationFrequency) * chain.RecalculationFrequency
	if height != lastAdjustment {
		return d.difficultyAt(view, lastAdjustment)
	}
	return d.retarget(view, lastAdjustment)
}

func (d *Default) difficultyAt(view ChainView, height uint64) uint64 {
	if height < chain.RecalculationFrequency {
		return 1
	}
	blk := view.BlockAt(height)
	if blk == nil {
		return 1
	}
	return blk.Metadata().Difficulty
}

func (d *Default) retarget(view ChainView, height uint64) uint64 {
	prevAdjustment := height - chain.RecalculationFrequency
	prevDifficulty := d.difficultyAt(view, prevAdjustment)

	first := view.BlockAt(height - chain.RecalculationFrequency)
	last := view.BlockAt(height - 1)
	if first == nil || last == nil {
		return prevDifficulty
	}

	actual := last.Metadata().Timestamp.Sub(first.Metadata().Timestamp).Seconds()
	expected := float64(chain.RecalculationFrequency * chain.TargetBlockInterval)
	if actual <= 0 {
		actual = 1
	}

	newDifficulty := uint64(float64(prevDifficulty) * expected / actual)
	if newDifficulty > prevDifficulty*4 {
		newDifficulty = prevDifficulty * 4
	}
	if newDifficulty < prevDifficulty/4 {
		newDifficulty = prevDifficulty / 4
	}
	if newDifficulty == 0 {
		newDifficulty = 1
	}
	return newDifficulty
}

// ValidateNextBlockTx checks the signature and sender existence of tx
// against current state, grounded on blockchain/validation.go's
// ValidateTransaction. Payload is opaque to Policy (spec.md §3), so
// affordability against an amount is the ActionEvaluator's job, applied
// at evaluation time; nonce gap/stale handling for gather-time
// skip-vs-evict is TxGatherer's job (spec.md §4.C).
func (d *Default) ValidateNextBlockTx(_ ChainView, tx chain.Transaction) *Violation {
	if tx.Signer == (chain.Address{}) {
		// Coinbase-style transaction: always valid, no sender to check.
		return nil
	}

	if !ed25519.Verify(tx.Signer[:], tx.ID[:], tx.Signature[:]) {
		return &Violation{Kind: "bad-signature", Detail: "signature does not verify against signer"}
	}

	if _, ok := d.state.Account(tx.Signer); !ok {
		return &Violation{Kind: "unknown-sender", Detail: "sender account does not exist"}
	}

	return nil
}
