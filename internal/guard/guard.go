// Package guard provides a run-at-most-one-operation concurrency primitive.
//
// A Guard serializes access to one shared resource. While an operation is
// running, a second call either returns immediately without running (the
// default "drop duplicate trigger" mode) or waits its turn in a FIFO queue
// (queued mode). Callers in drop mode must treat Run as fire-and-forget: a
// nil return does not mean the operation ran.
package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	trylock "github.com/subchen/go-trylock/v2"
	"go.uber.org/atomic"
)

// Op is an operation protected by a Guard.
type Op func(ctx context.Context) error

type waiter struct {
	ctx  context.Context
	op   Op
	done chan error
}

// Guard runs at most one operation at a time.
type Guard struct {
	name   string
	log    zerolog.Logger
	mu     trylock.TryLocker
	locked atomic.Bool
	queued bool

	qmu   sync.Mutex
	queue []waiter
}

// New creates a Guard in drop mode: while locked, Run is a silent no-op.
func New(name string, log zerolog.Logger) *Guard {
	return &Guard{
		name: name,
		log:  log.With().Str("guard", name).Logger(),
		mu:   trylock.New(),
	}
}

// NewQueued creates a Guard in queued mode: while locked, Run waits in a
// FIFO queue and returns its operation's result once it has run.
func NewQueued(name string, log zerolog.Logger) *Guard {
	g := New(name, log)
	g.queued = true
	return g
}

// IsLocked reports whether an operation currently holds the guard.
func (g *Guard) IsLocked() bool {
	return g.locked.Load()
}

// Run executes op under the guard.
//
// If the guard is free, op runs immediately and its error is returned. The
// guard is always released afterward, whether op succeeds, fails, or panics.
//
// If the guard is held and the Guard is in drop mode, Run returns nil without
// running op. In queued mode, op is appended to a FIFO queue; the queue is
// drained one item at a time by whichever call holds the guard, and each
// queued caller receives its own operation's result. A queued operation whose
// context is already canceled when its turn comes is skipped and its caller
// receives the context error.
func (g *Guard) Run(ctx context.Context, op Op) error {
	if g.mu.TryLock(nil) {
		return g.runLocked(ctx, op)
	}

	if !g.queued {
		// Drop duplicate trigger.
		g.log.Debug().Msg("guard busy, dropping operation")
		return nil
	}

	w := waiter{ctx: ctx, op: op, done: make(chan error, 1)}
	g.qmu.Lock()
	// The holder may have released between the TryLock above and here, in
	// which case nothing would ever drain the queue. Re-check under qmu.
	if g.mu.TryLock(nil) {
		g.qmu.Unlock()
		return g.runLocked(ctx, op)
	}
	g.queue = append(g.queue, w)
	g.qmu.Unlock()

	return <-w.done
}

// runLocked runs op with the lock held, drains the queue, and releases the
// lock. The release is unconditional.
func (g *Guard) runLocked(ctx context.Context, op Op) error {
	g.locked.Store(true)
	defer g.release()

	return g.invoke(ctx, op)
}

// release drains the queue and gives the lock up. The release decision is
// made under qmu: a waiter enqueues under qmu after failing TryLock, so it
// either lands before the final empty-queue check here and gets drained, or
// lands after the lock is already free and its own re-try succeeds. A waiter
// can never sit in the queue with no holder left to drain it.
func (g *Guard) release() {
	for {
		g.drain()

		g.qmu.Lock()
		if len(g.queue) > 0 {
			g.qmu.Unlock()
			continue
		}
		g.locked.Store(false)
		g.mu.Unlock()
		g.qmu.Unlock()
		return
	}
}

// drain runs queued operations strictly FIFO. Errors are delivered to the
// queued caller and logged; they never stop the drain.
func (g *Guard) drain() {
	for {
		g.qmu.Lock()
		if len(g.queue) == 0 {
			g.qmu.Unlock()
			return
		}
		w := g.queue[0]
		g.queue = g.queue[1:]
		g.qmu.Unlock()

		if err := w.ctx.Err(); err != nil {
			w.done <- err
			continue
		}

		err := g.invoke(w.ctx, w.op)
		if err != nil {
			g.log.Debug().Err(err).Msg("queued operation failed")
		}
		w.done <- err
	}
}

// invoke runs op, converting a panic into an error so a panicking operation
// cannot leave the guard held or kill the drain loop.
func (g *Guard) invoke(ctx context.Context, op Op) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("guarded operation panicked: %v", r)
		}
	}()
	return op(ctx)
}
