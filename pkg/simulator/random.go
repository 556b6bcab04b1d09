// Package simulator synthesizes the mock telemetry that feeds every view.
package simulator

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the source of randomness used by the generators. Tests pass a
// seeded *rand.Rand so generated records are reproducible.
type Random interface {
	Intn(n int) int
	Float64() float64
}

// lockedRand makes a *rand.Rand safe to share between view timers
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a goroutine-safe Random seeded from the clock
func NewRandom() Random {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRandom returns a goroutine-safe Random with a fixed seed
func NewSeededRandom(seed int64) Random {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func pick[T any](rng Random, pool []T) T {
	return pool[rng.Intn(len(pool))]
}

// between returns a number in [lo, hi)
func between(rng Random, lo, hi int) int {
	return lo + rng.Intn(hi-lo)
}
