package feed

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunnerTicksUntilStopped tests that the timer fires while running and never after Stop
func TestRunnerTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int64
	r := NewRunner("test", 5*time.Millisecond, func(time.Time) { ticks.Add(1) })

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Running())

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	r.Stop()
	assert.False(t, r.Running())

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no tick may fire after Stop")
}

// TestRunnerSingleTimer tests that a second Start is rejected
func TestRunnerSingleTimer(t *testing.T) {
	r := NewRunner("test", time.Hour, func(time.Time) {})
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	assert.ErrorIs(t, r.Start(context.Background()), ErrRunnerStarted)
}

// TestRunnerStopIsIdempotent tests duplicate and premature Stop calls
func TestRunnerStopIsIdempotent(t *testing.T) {
	r := NewRunner("test", time.Hour, func(time.Time) {})

	assert.NotPanics(t, r.Stop)

	require.NoError(t, r.Start(context.Background()))
	r.Stop()
	assert.NotPanics(t, r.Stop)

	// a stopped runner can be started again
	require.NoError(t, r.Start(context.Background()))
	r.Stop()
}

// TestRunnerStopsWithContext tests that cancelling the parent context ends the timer
func TestRunnerStopsWithContext(t *testing.T) {
	var ticks atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner("test", 5*time.Millisecond, func(time.Time) { ticks.Add(1) })
	require.NoError(t, r.Start(ctx))

	cancel()
	r.Stop()
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

// TestRunnerRestartsAfterContextCancel tests that a runner whose parent context
// ended reports itself stopped and can be started again
func TestRunnerRestartsAfterContextCancel(t *testing.T) {
	var ticks atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner("test", 5*time.Millisecond, func(time.Time) { ticks.Add(1) })
	require.NoError(t, r.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()
	before := ticks.Load()
	assert.Eventually(t, func() bool { return ticks.Load() > before }, time.Second, time.Millisecond)
}

// TestSourceTick tests probability gating, id assignment and the insert hook
func TestSourceTick(t *testing.T) {
	f := New[item](3, itemID)
	var inserted []string
	var evictions int

	rolls := []float64{0.1, 0.9, 0.05, 0.0, 0.2}
	idx := 0
	src := &Source[item]{
		Feed:        f,
		IDs:         NewSequenceSource("X", 2, 1),
		Probability: 0.3,
		Chance: func() float64 {
			v := rolls[idx]
			idx++
			return v
		},
		Generate: func(id string, now time.Time) item {
			return item{ID: id, Text: now.Format(time.RFC3339)}
		},
		OnInsert: func(rec item, evicted []item) {
			inserted = append(inserted, rec.ID)
			evictions += len(evicted)
		},
	}

	now := time.Date(2024, 1, 15, 14, 30, 25, 0, time.UTC)
	results := []bool{}
	for range rolls {
		_, ok := src.Tick(now)
		results = append(results, ok)
	}

	assert.Equal(t, []bool{true, false, true, true, true}, results)
	assert.Equal(t, []string{"X01", "X02", "X03", "X04"}, inserted)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 1, evictions)
	assert.Equal(t, "X04", f.Snapshot()[0].ID)
}

// TestSourceDeterministic tests that probability 1 always inserts and 0 never does
func TestSourceDeterministic(t *testing.T) {
	always := &Source[item]{
		Feed:        New[item](100, itemID),
		IDs:         UUIDSource{Prefix: "log"},
		Probability: 1,
		Chance:      func() float64 { panic("chance must not be rolled") },
		Generate:    func(id string, _ time.Time) item { return item{ID: id} },
	}
	never := &Source[item]{
		Feed:        New[item](100, itemID),
		IDs:         UUIDSource{},
		Probability: 0,
		Generate:    func(id string, _ time.Time) item { return item{ID: id} },
	}

	for i := 0; i < 10; i++ {
		_, ok := always.Tick(time.Now())
		assert.True(t, ok)
		_, ok = never.Tick(time.Now())
		assert.False(t, ok)
	}
	assert.Equal(t, 10, always.Feed.Len())
	assert.Equal(t, 0, never.Feed.Len())
}

// TestIDSources tests both id strategies
func TestIDSources(t *testing.T) {
	seq, err := NewIDSource(IDStrategySequence, "A", 3, 6)
	require.NoError(t, err)
	assert.Equal(t, "A006", seq.NextID())
	assert.Equal(t, "A007", seq.NextID())

	uu, err := NewIDSource("", "pkt", 0, 0)
	require.NoError(t, err)
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := uu.NextID()
		assert.False(t, seen[id], fmt.Sprintf("duplicate id %s", id))
		seen[id] = true
	}

	_, err = NewIDSource("timestamp", "A", 3, 0)
	assert.Error(t, err)
}
