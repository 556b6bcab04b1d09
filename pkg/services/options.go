package services

import (
	"context"
	"time"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// View names, in tab bar order
const (
	ViewDashboard = "dashboard"
	ViewThreats   = "threats"
	ViewPackets   = "packets"
	ViewAlerts    = "alerts"
	ViewLogs      = "logs"
	ViewNetwork   = "network"
	ViewSettings  = "settings"
)

// Tabs lists every view in tab bar order
var Tabs = []string{ViewDashboard, ViewThreats, ViewPackets, ViewAlerts, ViewLogs, ViewNetwork, ViewSettings}

// FeedOptions configures the timer and bound of one feed
type FeedOptions struct {
	Interval    time.Duration `mapstructure:"interval"`
	Capacity    int           `mapstructure:"capacity"`
	Probability float64       `mapstructure:"probability"`
}

// HostStatsProvider reports resource usage of the machine the service runs on
type HostStatsProvider interface {
	Collect(ctx context.Context) (*models.HostStats, error)
}

// Options holds everything a view needs to build its feed
type Options struct {
	Alerts  FeedOptions
	Threats FeedOptions
	Packets FeedOptions
	Logs    FeedOptions
	Network FeedOptions

	DashboardInterval time.Duration
	ScanDelay         time.Duration
	IDStrategy        string

	Random    simulator.Random
	Now       func() time.Time
	Sink      EventSink
	HostStats HostStatsProvider
}

// DefaultOptions returns the feed timings of the original dashboard
func DefaultOptions() Options {
	return Options{
		Alerts:            FeedOptions{Interval: 15 * time.Second, Capacity: 100, Probability: 0.2},
		Threats:           FeedOptions{Interval: 10 * time.Second, Capacity: 10, Probability: 0.3},
		Packets:           FeedOptions{Interval: time.Second, Capacity: 100, Probability: 1},
		Logs:              FeedOptions{Interval: 2 * time.Second, Capacity: 100, Probability: 1},
		Network:           FeedOptions{Interval: 3 * time.Second, Capacity: 20, Probability: 0.3},
		DashboardInterval: 5 * time.Second,
		ScanDelay:         3 * time.Second,
		IDStrategy:        feed.IDStrategyUUID,
	}
}

func (o Options) withDefaults() Options {
	if o.Random == nil {
		o.Random = simulator.NewRandom()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// idSource builds the id source for a feed. Sequence ids continue after the
// seeded records so they never collide with them.
func (o Options) idSource(prefix string, width int, seeded int) feed.IDSource {
	ids, err := feed.NewIDSource(o.IDStrategy, prefix, width, int64(seeded+1))
	if err != nil {
		return feed.UUIDSource{Prefix: prefix}
	}
	return ids
}
