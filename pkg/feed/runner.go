package feed

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRunnerStarted is returned when Start is called on a runner that is already ticking
var ErrRunnerStarted = errors.New("runner already started")

// Runner owns the repeating timer of one view instance. At most one timer
// goroutine is active per runner; Stop is idempotent and waits for the
// goroutine to exit, so no tick fires after Stop returns.
type Runner struct {
	name     string
	interval time.Duration
	tick     func(now time.Time)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a stopped runner that calls tick every interval
func NewRunner(name string, interval time.Duration, tick func(now time.Time)) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		name:     name,
		interval: interval,
		tick:     tick,
	}
}

// Start launches the timer goroutine. It stops on its own when ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrRunnerStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	logrus.Debugf("Starting %s timer (interval %s)", r.name, r.interval)
	go r.loop(runCtx, done)
	return nil
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer r.release(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// both channels may be ready at once; stopping wins
			if ctx.Err() != nil {
				return
			}
			r.tick(now)
		}
	}
}

// release clears the runner state when the loop exits on its own, so a
// cancelled parent leaves the runner stopped and restartable
func (r *Runner) release(done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		return
	}
	r.cancel()
	r.cancel, r.done = nil, nil
	logrus.Debugf("%s timer exited with its context", r.name)
}

// Stop cancels the timer and waits for it to exit. Calling Stop on a runner
// that is not running is a no-op.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logrus.Debugf("Stopped %s timer", r.name)
}

// Running reports whether the timer goroutine is active
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Interval returns the tick period
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Source synthesizes records into a feed on every tick
type Source[T any] struct {
	Feed        *Feed[T]
	IDs         IDSource
	Generate    func(id string, now time.Time) T
	Probability float64
	// Chance returns a number in [0,1); defaults to math/rand
	Chance func() float64
	// OnInsert is called after every insert with the records it evicted
	OnInsert func(rec T, evicted []T)
}

// Tick rolls the source's probability and, on success, generates one record
// and prepends it to the feed.
func (s *Source[T]) Tick(now time.Time) (T, bool) {
	var zero T
	if s.Probability <= 0 {
		return zero, false
	}
	if s.Probability < 1 {
		chance := s.Chance
		if chance == nil {
			chance = rand.Float64
		}
		if chance() >= s.Probability {
			return zero, false
		}
	}

	rec := s.Generate(s.IDs.NextID(), now)
	evicted := s.Feed.Push(rec)
	if s.OnInsert != nil {
		s.OnInsert(rec, evicted)
	}
	return rec, true
}
