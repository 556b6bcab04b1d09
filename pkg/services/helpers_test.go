package services

import (
	"sync"
	"time"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

const (
	waitFor   = time.Second
	pollEvery = time.Millisecond
)

var testNow = time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)

// recorder is an EventSink that keeps every event
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) kinds(view string) []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventKind
	for _, e := range r.events {
		if e.View == view {
			out = append(out, e.Kind)
		}
	}
	return out
}

// testOptions returns deterministic options whose timers never fire on
// their own during a test; tests drive feeds through Tick.
func testOptions(sink EventSink) Options {
	opts := DefaultOptions()
	for _, f := range []*FeedOptions{&opts.Alerts, &opts.Threats, &opts.Packets, &opts.Logs, &opts.Network} {
		f.Interval = time.Hour
	}
	opts.DashboardInterval = time.Hour
	opts.ScanDelay = 10 * time.Millisecond
	opts.IDStrategy = feed.IDStrategySequence
	opts.Random = simulator.NewSeededRandom(7)
	opts.Now = func() time.Time { return testNow }
	opts.Sink = sink
	return opts
}

func ids[T any](records []T, id func(T) string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, id(r))
	}
	return out
}
