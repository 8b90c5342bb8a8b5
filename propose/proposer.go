// Package propose implements Proposer (spec.md §4.E), the orchestration
// that sequences BlockMetadataBuilder, TxGatherer, MiningDriver, and the
// external ActionEvaluator into the public propose operation (spec.md
// §6 "Public operations exposed by the core").
package propose

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"forge/chain"
	"forge/evaluate"
	"forge/events"
	"forge/gather"
	"forge/metadata"
	"forge/mining"
	"forge/policy"
	"forge/stage"
	"forge/store"
)

// Appender is the subset of chain append the Proposer needs after
// evaluation succeeds. store.Memory satisfies this.
type Appender interface {
	AddBlock(block *chain.Block)
}

// Options configures one Propose call. Zero-valued fields take the
// defaults documented in spec.md §6: Timestamp defaults to now (UTC),
// Append defaults to true, the three caps default from Policy at the
// metadata's index, and Cancel defaults to a context that never
// cancels.
type Options struct {
	Timestamp time.Time
	Append    *bool

	MaxBlockBytes            int64
	MaxTransactions          int
	MaxTransactionsPerSigner int
	Priority                 stage.Priority

	Cancel context.Context
}

// Proposer wires BlockMetadataBuilder, TxGatherer, MiningDriver, and an
// ActionEvaluator into the propose operation.
type Proposer struct {
	Handle    chain.ChainHandle
	Metadata  *metadata.Builder
	Gather    *gather.Gatherer
	Mining    *mining.Driver
	Evaluator evaluate.ActionEvaluator
	Store     store.Store
	Policy    policy.Policy
	Events    *events.Publisher
	Appender  Appender
	Log       *logrus.Entry
}

// NewProposer constructs a Proposer over the given collaborators.
func NewProposer(handle chain.ChainHandle, mb *metadata.Builder, g *gather.Gatherer, md *mining.Driver, ev evaluate.ActionEvaluator, st store.Store, pol policy.Policy, pub *events.Publisher, appender Appender, log *logrus.Entry) *Proposer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Proposer{
		Handle: handle, Metadata: mb, Gather: g, Mining: md,
		Evaluator: ev, Store: st, Policy: pol, Events: pub,
		Appender: appender, Log: log,
	}
}

// Propose runs one full proposal cycle: build metadata, gather
// transactions, enforce the block minimum, mine under a tip-change
// watch, evaluate actions, persist executions, and optionally append
// (spec.md §4.E).
func (p *Proposer) Propose(ctx context.Context, proposerKey chain.Address, opts Options) (*chain.Block, error) {
	timestamp := opts.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	cancel := opts.Cancel
	if cancel == nil {
		cancel = context.Background()
	}

	meta := p.Metadata.Build(p.Handle, &proposerKey, timestamp)

	maxBytes := opts.MaxBlockBytes
	if maxBytes == 0 {
		maxBytes = p.Policy.MaxBlockBytes(meta.Index)
	}
	maxTx := opts.MaxTransactions
	if maxTx == 0 {
		maxTx = p.Policy.MaxTransactionsPerBlock(meta.Index)
	}
	maxTxPerSigner := opts.MaxTransactionsPerSigner
	if maxTxPerSigner == 0 {
		maxTxPerSigner = p.Policy.MaxTransactionsPerSignerPerBlock(meta.Index)
	}

	txs := p.Gather.Gather(p.Handle, meta, gather.Options{
		MaxBlockBytes:            maxBytes,
		MaxTransactions:          maxTx,
		MaxTransactionsPerSigner: maxTxPerSigner,
		Priority:                 opts.Priority,
	})

	minTx := p.Policy.MinTransactionsPerBlock(meta.Index)
	if len(txs) < minTx {
		return nil, errors.WithStack(ErrInsufficientTransactions)
	}

	content := chain.BlockContent{Metadata: meta, Transactions: txs}

	pre, err := func() (*chain.PreEvaluationBlock, error) {
		miningCtx, release := events.WatchTip(cancel, p.Events)
		defer release()
		return p.Mining.Mine(miningCtx, content)
	}()
	if err != nil {
		return nil, errors.Wrap(err, "propose: mining")
	}

	block, evals, err := p.Evaluator.Evaluate(pre, &proposerKey, p.Handle)
	if err != nil {
		return nil, errors.Wrap(err, "propose: evaluate")
	}

	execs := make([]store.TxExecution, len(evals))
	for i, e := range evals {
		execs[i] = store.TxExecution{
			BlockIndex: meta.Index,
			TxID:       e.TxID,
			Signer:     e.Signer,
			Nonce:      e.Nonce,
			Success:    e.Success,
			Detail:     e.Detail,
		}
	}
	if err := p.Store.UpdateTxExecutions(execs); err != nil {
		return nil, errors.Wrap(err, "propose: update tx executions")
	}

	doAppend := true
	if opts.Append != nil {
		doAppend = *opts.Append
	}
	if doAppend {
		p.Appender.AddBlock(&block)
		p.Events.TipChanged()
	}

	return &block, nil
}
