package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// threatsDetectedLabel is the metric card that grows on every refresh
const threatsDetectedLabel = "Threats Detected"

// Dashboard is the overview tab: metric cards, recent activity and the
// threat histogram, plus an optional card for the collector host.
type Dashboard struct {
	lifecycle
	opts   Options
	gen    *simulator.Generator
	runner *feed.Runner

	mu           sync.RWMutex
	metrics      []models.Metric
	recentAlerts []models.RecentAlert
	threatData   []models.ThreatPoint
	updatedAt    time.Time
}

// NewDashboard creates an unmounted overview with the seeded cards
func NewDashboard(opts Options) *Dashboard {
	opts = opts.withDefaults()
	d := &Dashboard{
		opts:         opts,
		gen:          simulator.NewGenerator(opts.Random),
		metrics:      simulator.SeedMetrics(),
		recentAlerts: simulator.SeedRecentAlerts(),
		threatData:   simulator.SeedThreatData(),
		updatedAt:    opts.Now(),
	}
	d.runner = feed.NewRunner(ViewDashboard, opts.DashboardInterval, d.Tick)
	return d
}

// Name returns the tab name of the view
func (d *Dashboard) Name() string { return ViewDashboard }

// Mount starts the refresh timer
func (d *Dashboard) Mount(ctx context.Context) error {
	return d.mount(ctx, d.runner)
}

// Unmount stops the refresh timer
func (d *Dashboard) Unmount() {
	d.unmount()
}

// Tick grows the Threats Detected card by 0-2
func (d *Dashboard) Tick(now time.Time) {
	inc := d.gen.ThreatIncrement()

	d.mu.Lock()
	for i := range d.metrics {
		if d.metrics[i].Label != threatsDetectedLabel {
			continue
		}
		v, err := strconv.Atoi(d.metrics[i].Value)
		if err != nil {
			logrus.Warnf("Metric %q has non-numeric value %q", d.metrics[i].Label, d.metrics[i].Value)
			continue
		}
		d.metrics[i].Value = strconv.Itoa(v + inc)
	}
	d.updatedAt = now
	metrics := append([]models.Metric(nil), d.metrics...)
	d.mu.Unlock()

	publish(d.opts.Sink, d.opts.Now, Event{
		View:   ViewDashboard,
		Kind:   EventStats,
		Record: metrics,
		Len:    len(metrics),
		At:     now,
	})
}

// Metrics returns a copy of the metric cards
func (d *Dashboard) Metrics() []models.Metric {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Metric(nil), d.metrics...)
}

// Overview returns the full overview payload. Host stats are collected on
// demand; a failing collector only drops the host card.
func (d *Dashboard) Overview(ctx context.Context) models.Overview {
	d.mu.RLock()
	ov := models.Overview{
		Metrics:      append([]models.Metric(nil), d.metrics...),
		RecentAlerts: append([]models.RecentAlert(nil), d.recentAlerts...),
		ThreatData:   append([]models.ThreatPoint(nil), d.threatData...),
		UpdatedAt:    d.updatedAt,
	}
	d.mu.RUnlock()

	if d.opts.HostStats != nil {
		host, err := d.opts.HostStats.Collect(ctx)
		if err != nil {
			logrus.Warnf("Failed to collect host stats: %v", err)
		} else {
			ov.Host = host
		}
	}
	return ov
}
