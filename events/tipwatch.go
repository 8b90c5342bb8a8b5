// Package events provides tip-change notification for the Proposer
// (spec.md §4.E "Cancellation sources"), grounded on
// paralin-inca-go/chain/chain_state.go's SubscribeState subscription
// registry.
package events

import (
	"context"
	"math/rand"
	"sync"

	"forge/mining"
)

// Publisher broadcasts tip-change notifications to any number of
// subscribers. The zero value is not usable; construct with
// NewPublisher.
type Publisher struct {
	mu   sync.Mutex
	subs map[int64]chan struct{}
}

// NewPublisher constructs an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[int64]chan struct{})}
}

// Subscribe registers interest in tip changes. The returned channel is
// closed exactly once, the first time TipChanged is called after
// Subscribe returns; the returned cancel func deregisters the
// subscription and must be called on every exit path, including after
// the channel fires, to release the entry (spec.md Design Notes
// "deterministic release on every exit path"). Calling cancel twice, or
// after TipChanged already fired, is a silent no-op.
func (p *Publisher) Subscribe() (<-chan struct{}, func()) {
	id := rand.Int63()
	ch := make(chan struct{})

	p.mu.Lock()
	p.subs[id] = ch
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
	return ch, cancel
}

// TipChanged notifies every current subscriber that the tip advanced,
// then clears the subscriber set: each subscriber channel fires at most
// once per subscription.
func (p *Publisher) TipChanged() {
	p.mu.Lock()
	subs := p.subs
	p.subs = make(map[int64]chan struct{})
	p.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// WatchTip composes parent with a subscription to p so that the
// returned context is cancelled either when parent is cancelled or when
// the tip changes, whichever happens first, tagging the cancellation
// cause with the matching mining.Reason. The returned cancel func must
// be deferred by the caller to release the subscription on every exit
// path. The returned context does not inherit parent's cancellation
// directly: the watcher goroutine alone sets the cause, and when parent
// is done it checks the tip subscription once more first, so a tip
// change that has already fired wins over the caller's cancellation
// (spec.md §4.D "If both fire, TipChanged wins").
func WatchTip(parent context.Context, p *Publisher) (context.Context, func()) {
	tipCh, unsubscribe := p.Subscribe()
	ctx, cancel := context.WithCancelCause(context.WithoutCancel(parent))

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-tipCh:
			cancel(&mining.Cancelled{Reason: mining.ReasonTipChanged})
			return
		default:
		}
		select {
		case <-tipCh:
			cancel(&mining.Cancelled{Reason: mining.ReasonTipChanged})
		case <-parent.Done():
			select {
			case <-tipCh:
				cancel(&mining.Cancelled{Reason: mining.ReasonTipChanged})
			default:
				cancel(&mining.Cancelled{Reason: mining.ReasonCaller})
			}
		case <-ctx.Done():
		}
	}()

	release := func() {
		unsubscribe()
		cancel(nil)
		<-done
	}
	return ctx, release
}
