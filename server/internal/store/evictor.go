package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// minSweepInterval guards against a zero or negative interval reaching
// time.NewTicker, which panics on non-positive durations.
const minSweepInterval = 10 * time.Millisecond

// Evictor runs EvictSweep against a Store on a fixed interval, independent
// of request traffic. The interval can be changed while Run is active.
type Evictor struct {
	store *Store

	mu        sync.Mutex
	interval  time.Duration
	observers []func(Sweep)

	reset chan struct{}
}

// NewEvictor creates an Evictor that sweeps st every interval.
func NewEvictor(st *Store, interval time.Duration) *Evictor {
	return &Evictor{
		store:    st,
		interval: clampInterval(interval),
		reset:    make(chan struct{}, 1),
	}
}

// OnSweep registers fn to be called after every sweep, outside the store
// lock. Observers run on the Run goroutine and should return quickly.
func (e *Evictor) OnSweep(fn func(Sweep)) {
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

// Interval returns the current sweep interval.
func (e *Evictor) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// SetInterval changes the sweep interval. A running loop picks it up
// without waiting for the current tick.
func (e *Evictor) SetInterval(d time.Duration) {
	d = clampInterval(d)
	e.mu.Lock()
	changed := d != e.interval
	e.interval = d
	e.mu.Unlock()

	if !changed {
		return
	}
	select {
	case e.reset <- struct{}{}:
	default:
	}
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
func (e *Evictor) Run(ctx context.Context) {
	t := time.NewTicker(e.Interval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.reset:
			d := e.Interval()
			t.Reset(d)
			slog.Info("store: sweep interval changed", "interval", d)
		case <-t.C:
			e.Sweep()
		}
	}
}

// Sweep performs one sweep immediately and notifies observers.
func (e *Evictor) Sweep() Sweep {
	res := e.store.EvictSweep()
	if res.Evicted {
		slog.Debug("store: evicted record",
			"id", res.Candidate,
			"weight", res.Weight,
			"roll", res.Roll,
		)
	}

	e.mu.Lock()
	obs := make([]func(Sweep), len(e.observers))
	copy(obs, e.observers)
	e.mu.Unlock()

	for _, fn := range obs {
		fn(res)
	}
	return res
}

func clampInterval(d time.Duration) time.Duration {
	if d < minSweepInterval {
		return minSweepInterval
	}
	return d
}
