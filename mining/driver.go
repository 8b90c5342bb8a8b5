// Package mining implements MiningDriver (spec.md §4.D): a cancellable,
// multi-worker proof-of-work search over a BlockContent.
package mining

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"forge/chain"
)

// Reason distinguishes why a Mine call was cancelled (spec.md §4.D
// "Failure semantics").
type Reason string

const (
	// ReasonTipChanged fires when the proposer observed the chain tip
	// advance during mining. The more informative cause: if both fire
	// simultaneously, TipChanged wins (spec.md §4.D).
	ReasonTipChanged Reason = "tip_changed"
	// ReasonCaller fires when the caller's own cancel signal tripped.
	ReasonCaller Reason = "caller"
)

// Cancelled is returned when mining is aborted before finding a winning
// nonce. Callers compose cancellation via context.WithCancelCause and
// pass a *Cancelled as the cause so Mine can report which side tripped;
// an ordinary context.Cancel (no recorded cause) is reported as
// ReasonCaller.
type Cancelled struct {
	Reason Reason
}

func (c *Cancelled) Error() string { return "mining cancelled: " + string(c.Reason) }

// pollInterval is the number of hash attempts in each worker's inner
// batch. The stop channel is checked before every attempt, so
// cancellation latency is bounded by one hash attempt (spec.md §4.D).
const pollInterval = 1024

// Driver runs the proof-of-work search described by spec.md §4.D.
type Driver struct {
	Codec   chain.BlockCodec
	Workers int
	Log     *logrus.Entry
}

// NewDriver constructs a Driver. workers <= 0 defaults to runtime.NumCPU().
func NewDriver(codec chain.BlockCodec, workers int, log *logrus.Entry) *Driver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{Codec: codec, Workers: workers, Log: log}
}

type result struct {
	nonce uint64
	hash  chain.Hash32
}

// Mine searches for a nonce whose PreEvaluationHash satisfies
// content.Metadata.Difficulty, sharding the nonce space across Workers
// goroutines on disjoint strides. The first worker to find a hash wins
// and all siblings are cancelled. If ctx is done before a winner is
// found, Mine returns an error wrapping a *Cancelled derived from
// context.Cause(ctx); use errors.As to recover it.
func (d *Driver) Mine(ctx context.Context, content chain.BlockContent) (*chain.PreEvaluationBlock, error) {
	stop := make(chan struct{})
	var stopOnce sync.Once
	closeStop := func() { stopOnce.Do(func() { close(stop) }) }

	results := make(chan result, 1)
	var wg sync.WaitGroup
	for w := 0; w < d.Workers; w++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			d.search(stop, closeStop, results, content, start)
		}(uint64(w))
	}

	var block *chain.PreEvaluationBlock
	var err error
	select {
	case r := <-results:
		closeStop()
		block = toBlock(content, r)
	case <-ctx.Done():
		closeStop()
		select {
		case r := <-results:
			block = toBlock(content, r)
		default:
			err = errors.WithStack(cancelledFrom(ctx))
		}
	}
	wg.Wait()
	return block, err
}

func (d *Driver) search(stop <-chan struct{}, closeStop func(), results chan<- result, content chain.BlockContent, start uint64) {
	nonce := start
	for {
		for i := 0; i < pollInterval; i++ {
			select {
			case <-stop:
				return
			default:
			}
			hash := d.Codec.PreEvaluationHash(content, nonce)
			if chain.MeetsDifficulty(hash, content.Metadata.Difficulty) {
				select {
				case results <- result{nonce: nonce, hash: hash}:
				default:
				}
				closeStop()
				return
			}
			nonce += uint64(d.Workers)
		}
	}
}

func toBlock(content chain.BlockContent, r result) *chain.PreEvaluationBlock {
	return &chain.PreEvaluationBlock{
		Content:           content,
		Nonce:             r.nonce,
		PreEvaluationHash: r.hash,
	}
}

func cancelledFrom(ctx context.Context) *Cancelled {
	if cause, ok := context.Cause(ctx).(*Cancelled); ok {
		return cause
	}
	return &Cancelled{Reason: ReasonCaller}
}
