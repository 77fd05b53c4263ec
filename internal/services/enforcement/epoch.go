package enforcement

import (
	"sync/atomic"
	"time"
)

// EpochReader exposes the process-wide reset epoch to detectors.
type EpochReader interface {
	Current() int64
}

// Epoch is the reset clock shared by every feed. Only the history reset
// writes to it; detectors poll it on each call.
type Epoch struct {
	value atomic.Int64
	now   func() time.Time
}

func NewEpoch() *Epoch {
	e := &Epoch{now: time.Now}
	e.value.Store(e.now().UnixNano())
	return e
}

// Current returns the epoch in unix nanoseconds.
func (e *Epoch) Current() int64 {
	return e.value.Load()
}

// Advance moves the epoch to now. The value strictly increases even if
// the wall clock steps backwards or two resets land in the same tick.
func (e *Epoch) Advance() int64 {
	for {
		prev := e.value.Load()
		next := e.now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if e.value.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// epochGuard remembers the last epoch a detector observed.
type epochGuard struct {
	epoch EpochReader
	seen  int64
}

func newEpochGuard(epoch EpochReader) epochGuard {
	g := epochGuard{epoch: epoch}
	if epoch != nil {
		g.seen = epoch.Current()
	}
	return g
}

// stale reports whether a reset happened since the last call and records
// the new epoch.
func (g *epochGuard) stale() bool {
	if g.epoch == nil {
		return false
	}
	cur := g.epoch.Current()
	if cur != g.seen {
		g.seen = cur
		return true
	}
	return false
}
