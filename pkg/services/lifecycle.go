package services

import (
	"context"
	"sync"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
)

// View is one tab of the console. A view starts its timers on Mount and
// stops them on Unmount; after Unmount returns no timer of the view fires.
type View interface {
	Name() string
	Mount(ctx context.Context) error
	Unmount()
}

// lifecycle tracks the mount state shared by every view: the runners that
// start with the view and the background tasks (scans) it spawns.
type lifecycle struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   sync.WaitGroup
	runners []*feed.Runner
}

func (l *lifecycle) mount(parent context.Context, runners ...*feed.Runner) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)
	for i, r := range runners {
		if err := r.Start(ctx); err != nil {
			for _, started := range runners[:i] {
				started.Stop()
			}
			cancel()
			return err
		}
	}
	l.ctx, l.cancel = ctx, cancel
	l.runners = runners
	return nil
}

// unmount cancels the view context, stops every runner and waits for
// background tasks to drain. It is a no-op when the view is not mounted.
func (l *lifecycle) unmount() bool {
	l.mu.Lock()
	cancel, runners := l.cancel, l.runners
	l.ctx, l.cancel, l.runners = nil, nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	for _, r := range runners {
		r.Stop()
	}
	l.tasks.Wait()
	return true
}

// context returns the mount context, or false if the view is not mounted
func (l *lifecycle) context() (context.Context, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx, l.ctx != nil
}

func (l *lifecycle) mounted() bool {
	_, ok := l.context()
	return ok
}

// spawn runs fn in a goroutine tied to the mount context
func (l *lifecycle) spawn(fn func(ctx context.Context)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx == nil {
		return ErrViewNotMounted
	}
	ctx := l.ctx
	l.tasks.Add(1)
	go func() {
		defer l.tasks.Done()
		fn(ctx)
	}()
	return nil
}
