package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// ThreatFilter selects threats in the detection view
type ThreatFilter struct {
	Severity string `query:"severity"`
	Query    string `query:"q"`
}

// ThreatDetection manages the threat feed and manual scans
type ThreatDetection struct {
	lifecycle
	opts     Options
	gen      *simulator.Generator
	ids      feed.IDSource
	feed     *feed.Feed[models.Threat]
	source   *feed.Source[models.Threat]
	runner   *feed.Runner
	scanning atomic.Bool
}

// NewThreatDetection creates an unmounted detection view holding the seed threats
func NewThreatDetection(opts Options) *ThreatDetection {
	opts = opts.withDefaults()
	gen := simulator.NewGenerator(opts.Random)
	seed := simulator.SeedThreats()

	td := &ThreatDetection{
		opts: opts,
		gen:  gen,
		ids:  opts.idSource("T", 3, len(seed)),
		feed: feed.New(opts.Threats.Capacity, func(t models.Threat) string { return t.ID }, seed...),
	}
	td.source = &feed.Source[models.Threat]{
		Feed:        td.feed,
		IDs:         td.ids,
		Generate:    gen.Threat,
		Probability: opts.Threats.Probability,
		Chance:      gen.Chance,
		OnInsert: func(t models.Threat, evicted []models.Threat) {
			td.emit(EventInsert, t.ID, t, len(evicted))
		},
	}
	td.runner = feed.NewRunner(ViewThreats, opts.Threats.Interval, func(now time.Time) {
		td.source.Tick(now)
	})
	return td
}

// Name returns the tab name of the view
func (td *ThreatDetection) Name() string { return ViewThreats }

// Mount starts the detection timer
func (td *ThreatDetection) Mount(ctx context.Context) error {
	return td.mount(ctx, td.runner)
}

// Unmount stops the detection timer and abandons a running scan
func (td *ThreatDetection) Unmount() {
	td.unmount()
	td.scanning.Store(false)
}

// Tick runs one timer step immediately
func (td *ThreatDetection) Tick(now time.Time) (models.Threat, bool) {
	return td.source.Tick(now)
}

// List returns the threats matching the filter, newest first
func (td *ThreatDetection) List(f ThreatFilter) []models.Threat {
	return td.feed.Filter(feed.All(
		feed.Equals(f.Severity, func(t models.Threat) string { return string(t.Severity) }),
		feed.Any(
			feed.Contains(f.Query,
				func(t models.Threat) string { return t.Description },
				func(t models.Threat) string { return t.Type },
			),
			feed.ContainsExact(f.Query,
				func(t models.Threat) string { return t.Source },
				func(t models.Threat) string { return t.Target },
			),
		),
	))
}

// Get returns a single threat
func (td *ThreatDetection) Get(id string) (models.Threat, error) {
	t, ok := td.feed.Get(id)
	if !ok {
		return models.Threat{}, fmt.Errorf("threat %s: %w", id, ErrNotFound)
	}
	return t, nil
}

// Stats computes the per-severity and per-status counters
func (td *ThreatDetection) Stats() models.ThreatStats {
	threats := td.feed.Snapshot()
	return models.ThreatStats{
		Total:      len(threats),
		BySeverity: feed.CountBy(threats, func(t models.Threat) models.Severity { return t.Severity }),
		ByStatus:   feed.CountBy(threats, func(t models.Threat) models.ThreatStatus { return t.Status }),
		Scanning:   td.scanning.Load(),
	}
}

// Scanning reports whether a manual scan is running
func (td *ThreatDetection) Scanning() bool {
	return td.scanning.Load()
}

// RunScan starts a manual scan. After the scan delay a scan result threat is
// prepended to the feed. Only one scan runs at a time; unmounting the view
// abandons the scan without a result.
func (td *ThreatDetection) RunScan() error {
	if !td.scanning.CompareAndSwap(false, true) {
		return ErrScanInProgress
	}

	err := td.spawn(func(ctx context.Context) {
		defer td.scanning.Store(false)

		timer := time.NewTimer(td.opts.ScanDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			logrus.Infof("Threat scan abandoned")
			return
		case <-timer.C:
		}

		t := td.gen.ScanResult(td.ids.NextID(), td.opts.Now())
		evicted := td.feed.Push(t)
		logrus.Infof("Threat scan completed, reported %s", t.ID)
		td.emit(EventScan, t.ID, t, len(evicted))
	})
	if err != nil {
		td.scanning.Store(false)
		return err
	}

	logrus.Infof("Threat scan started (delay %s)", td.opts.ScanDelay)
	td.emit(EventStats, "", td.Stats(), 0)
	return nil
}

// Export acknowledges an export of the filtered threats. Nothing is written.
func (td *ThreatDetection) Export(f ThreatFilter) models.Ack {
	n := len(td.List(f))
	logrus.Infof("Export requested for %d threats", n)
	return models.Ack{
		Action:  "export",
		Message: fmt.Sprintf("Exported %d threats", n),
		Count:   n,
		At:      td.opts.Now(),
	}
}

func (td *ThreatDetection) emit(kind EventKind, id string, rec interface{}, evicted int) {
	publish(td.opts.Sink, td.opts.Now, Event{
		View:     ViewThreats,
		Kind:     kind,
		RecordID: id,
		Record:   rec,
		Len:      td.feed.Len(),
		Evicted:  evicted,
	})
}
