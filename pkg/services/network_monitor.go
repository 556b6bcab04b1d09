package services

import (
	"context"
	"sync"
	"time"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// ConnectionFilter selects rows in the network monitor
type ConnectionFilter struct {
	Status string `query:"status"`
	Risk   string `query:"risk"`
	Query  string `query:"q"`
}

// NetworkMonitor manages the connection feed and the live traffic header.
// Every tick walks the header stats; a connection is added with the feed's probability.
type NetworkMonitor struct {
	lifecycle
	opts   Options
	gen    *simulator.Generator
	feed   *feed.Feed[models.NetworkConnection]
	source *feed.Source[models.NetworkConnection]
	runner *feed.Runner

	statsMu sync.RWMutex
	stats   models.NetworkStats
}

// NewNetworkMonitor creates an unmounted monitor holding the seed connections
func NewNetworkMonitor(opts Options) *NetworkMonitor {
	opts = opts.withDefaults()
	gen := simulator.NewGenerator(opts.Random)
	seed := simulator.SeedConnections()

	nm := &NetworkMonitor{
		opts:  opts,
		gen:   gen,
		feed:  feed.New(opts.Network.Capacity, func(c models.NetworkConnection) string { return c.ID }, seed...),
		stats: simulator.SeedNetworkStats(),
	}
	nm.source = &feed.Source[models.NetworkConnection]{
		Feed:        nm.feed,
		IDs:         opts.idSource("", 0, len(seed)),
		Generate:    gen.Connection,
		Probability: opts.Network.Probability,
		Chance:      gen.Chance,
		OnInsert: func(c models.NetworkConnection, evicted []models.NetworkConnection) {
			nm.emit(EventInsert, c.ID, c, len(evicted))
		},
	}
	nm.runner = feed.NewRunner(ViewNetwork, opts.Network.Interval, func(now time.Time) {
		nm.Tick(now)
	})
	return nm
}

// Name returns the tab name of the view
func (nm *NetworkMonitor) Name() string { return ViewNetwork }

// Mount starts the network timer
func (nm *NetworkMonitor) Mount(ctx context.Context) error {
	return nm.mount(ctx, nm.runner)
}

// Unmount stops the network timer
func (nm *NetworkMonitor) Unmount() {
	nm.unmount()
}

// Tick walks the header stats and maybe adds a connection
func (nm *NetworkMonitor) Tick(now time.Time) (models.NetworkConnection, bool) {
	nm.statsMu.Lock()
	nm.stats = nm.gen.WalkNetworkStats(nm.stats)
	stats := nm.stats
	nm.statsMu.Unlock()
	nm.emit(EventStats, "", stats, 0)

	return nm.source.Tick(now)
}

// Stats returns the live traffic header
func (nm *NetworkMonitor) Stats() models.NetworkStats {
	nm.statsMu.RLock()
	defer nm.statsMu.RUnlock()
	return nm.stats
}

// Connections returns the connections matching the filter, newest first
func (nm *NetworkMonitor) Connections(f ConnectionFilter) []models.NetworkConnection {
	return nm.feed.Filter(feed.All(
		feed.Equals(f.Status, func(c models.NetworkConnection) string { return string(c.Status) }),
		feed.Equals(f.Risk, func(c models.NetworkConnection) string { return string(c.Risk) }),
		feed.ContainsExact(f.Query,
			func(c models.NetworkConnection) string { return c.Source },
			func(c models.NetworkConnection) string { return c.Destination },
		),
	))
}

// Counts computes the per-status and per-risk counters
func (nm *NetworkMonitor) Counts() models.ConnectionCounts {
	conns := nm.feed.Snapshot()
	return models.ConnectionCounts{
		Total:    len(conns),
		ByStatus: feed.CountBy(conns, func(c models.NetworkConnection) models.ConnectionStatus { return c.Status }),
		ByRisk:   feed.CountBy(conns, func(c models.NetworkConnection) models.Risk { return c.Risk }),
	}
}

func (nm *NetworkMonitor) emit(kind EventKind, id string, rec interface{}, evicted int) {
	publish(nm.opts.Sink, nm.opts.Now, Event{
		View:     ViewNetwork,
		Kind:     kind,
		RecordID: id,
		Record:   rec,
		Len:      nm.feed.Len(),
		Evicted:  evicted,
	})
}
