package governor

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer injects a randomized delay between any two observable automated
// actions so the session never shows a fixed cadence. Delays are drawn
// uniformly from [min, max]. A zero-valued or nil Pacer waits not at all,
// which is the test policy.
type Pacer struct {
	min, max time.Duration
	mu       sync.Mutex
	rng      *rand.Rand
}

// NewPacer returns a Pacer drawing delays from [min, max].
func NewPacer(min, max time.Duration) *Pacer {
	return &Pacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks for one randomized delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.next()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Pacer) next() time.Duration {
	if p == nil || p.max <= 0 {
		return 0
	}
	if p.max <= p.min {
		return p.min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)))
}
