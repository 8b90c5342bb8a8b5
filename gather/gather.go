// Package gather implements TxGatherer (spec.md §4.C): selection of a
// staged-transaction subset respecting nonce continuity, per-signer and
// block-wide caps, a byte cap, policy validation, and a soft wall-clock
// budget.
package gather

import (
	"time"

	"github.com/sirupsen/logrus"

	"forge/chain"
	"forge/policy"
	"forge/sizeest"
	"forge/stage"
	"forge/store"
)

// DefaultDeadline is the gather-time wall-clock budget (spec.md §4.C
// step 2, §9 "Gather-time budget (4 s)"). Configurable per call via
// Options.Deadline; a zero Deadline uses this default.
const DefaultDeadline = 4 * time.Second

// Options bounds and tunes one Gather call.
type Options struct {
	MaxBlockBytes            int64
	MaxTransactions          int
	MaxTransactionsPerSigner int
	Priority                 stage.Priority
	Deadline                 time.Duration
}

// signerState is the ephemeral per-signer gather state of spec.md §3,
// lazily initialized on first sight of each signer and living only for
// the duration of one Gather call.
type signerState struct {
	storedNonce  uint64
	nextNonce    uint64
	toMineCount  int
}

// Gatherer selects staged transactions into a fixed-order admitted list.
type Gatherer struct {
	Stage     stage.StagePolicy
	Store     store.Store
	Policy    policy.Policy
	Estimator *sizeest.Estimator
	Log       *logrus.Entry
}

// NewGatherer constructs a Gatherer over the given collaborators.
func NewGatherer(sp stage.StagePolicy, st store.Store, pol policy.Policy, est *sizeest.Estimator, log *logrus.Entry) *Gatherer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Gatherer{Stage: sp, Store: st, Policy: pol, Estimator: est, Log: log}
}

// Gather runs the algorithm of spec.md §4.C and returns the admitted
// transactions in fixed output order. Always returns normally, even when
// the result is empty or below any minimum — enforcing a minimum is the
// Proposer's job (spec.md §4.C "Failure conditions").
func (g *Gatherer) Gather(handle chain.ChainHandle, meta chain.BlockMetadata, opts Options) []chain.Transaction {
	deadline := opts.Deadline
	if deadline == 0 {
		deadline = DefaultDeadline
	}
	tEnd := time.Now().Add(deadline)

	staged := g.Stage.ListStaged(handle.ID(), opts.Priority)

	enc := g.Estimator.Empty(meta)
	signers := make(map[chain.Address]*signerState)
	out := make([]chain.Transaction, 0, opts.MaxTransactions)

	for _, tx := range staged {
		if len(out) >= opts.MaxTransactions {
			break
		}

		ss, ok := signers[tx.Signer]
		if !ok {
			stored := g.Store.GetTxNonce(handle.ID(), tx.Signer)
			ss = &signerState{storedNonce: stored, nextNonce: stored}
			signers[tx.Signer] = ss
		}

		admissible := true
		switch {
		case tx.Nonce < ss.storedNonce:
			g.Log.WithFields(logrus.Fields{"signer": tx.Signer, "nonce": tx.Nonce}).Debug("gather: stale nonce, skipping")
			admissible = false
		case tx.Nonce > ss.nextNonce:
			g.Log.WithFields(logrus.Fields{"signer": tx.Signer, "nonce": tx.Nonce}).Debug("gather: nonce gap, skipping")
			admissible = false
		}

		if admissible {
			if v := g.Policy.ValidateNextBlockTx(handle, tx); v != nil {
				g.Log.WithFields(logrus.Fields{"tx": tx.ID, "violation": v.Kind}).Info("gather: policy violation, evicting")
				g.Stage.Ignore(handle.ID(), tx.ID)
				admissible = false
			}
		}

		var candidate chain.Encoding
		if admissible {
			candidate = g.Estimator.Append(enc, tx)
			if int64(g.Estimator.Length(candidate)) > opts.MaxBlockBytes {
				admissible = false
			}
		}

		if admissible && ss.toMineCount >= opts.MaxTransactionsPerSigner {
			admissible = false
		}

		if admissible {
			out = append(out, tx)
			ss.nextNonce++
			ss.toMineCount++
			enc = candidate
		}

		if time.Now().After(tEnd) {
			break
		}
	}

	return out
}
