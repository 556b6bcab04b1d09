package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// LogFilter selects lines in the log viewer
type LogFilter struct {
	Level         string `query:"level"`
	Query         string `query:"q"`
	AnomaliesOnly bool   `query:"anomalies"`
}

// LogMonitoring manages the log viewer feed
type LogMonitoring struct {
	lifecycle
	opts   Options
	feed   *feed.Feed[models.LogEntry]
	source *feed.Source[models.LogEntry]
	runner *feed.Runner
}

// NewLogMonitoring creates an unmounted log viewer holding the seed lines
func NewLogMonitoring(opts Options) *LogMonitoring {
	opts = opts.withDefaults()
	gen := simulator.NewGenerator(opts.Random)
	seed := simulator.SeedLogs()

	lm := &LogMonitoring{
		opts: opts,
		feed: feed.New(opts.Logs.Capacity, func(l models.LogEntry) string { return l.ID }, seed...),
	}
	lm.source = &feed.Source[models.LogEntry]{
		Feed:        lm.feed,
		IDs:         opts.idSource("", 0, len(seed)),
		Generate:    gen.LogEntry,
		Probability: opts.Logs.Probability,
		Chance:      gen.Chance,
		OnInsert: func(l models.LogEntry, evicted []models.LogEntry) {
			lm.emit(EventInsert, l.ID, l, len(evicted))
		},
	}
	lm.runner = feed.NewRunner(ViewLogs, opts.Logs.Interval, func(now time.Time) {
		lm.source.Tick(now)
	})
	return lm
}

// Name returns the tab name of the view
func (lm *LogMonitoring) Name() string { return ViewLogs }

// Mount starts the log timer
func (lm *LogMonitoring) Mount(ctx context.Context) error {
	return lm.mount(ctx, lm.runner)
}

// Unmount stops the log timer
func (lm *LogMonitoring) Unmount() {
	lm.unmount()
}

// Tick runs one timer step immediately
func (lm *LogMonitoring) Tick(now time.Time) (models.LogEntry, bool) {
	return lm.source.Tick(now)
}

// List returns the log lines matching the filter, newest first
func (lm *LogMonitoring) List(f LogFilter) []models.LogEntry {
	var anomalies feed.Predicate[models.LogEntry]
	if f.AnomaliesOnly {
		anomalies = func(l models.LogEntry) bool { return l.Anomaly }
	}
	return lm.feed.Filter(feed.All(
		feed.Equals(f.Level, func(l models.LogEntry) string { return string(l.Level) }),
		feed.Contains(f.Query,
			func(l models.LogEntry) string { return l.Message },
			func(l models.LogEntry) string { return l.Source },
			func(l models.LogEntry) string { return l.Category },
		),
		anomalies,
	))
}

// Get returns a single log line
func (lm *LogMonitoring) Get(id string) (models.LogEntry, error) {
	l, ok := lm.feed.Get(id)
	if !ok {
		return models.LogEntry{}, fmt.Errorf("log entry %s: %w", id, ErrNotFound)
	}
	return l, nil
}

// Stats computes the counters shown above the log table
func (lm *LogMonitoring) Stats() models.LogStats {
	logs := lm.feed.Snapshot()
	byLevel := feed.CountBy(logs, func(l models.LogEntry) models.LogLevel { return l.Level })
	stats := models.LogStats{
		Total:    len(logs),
		Errors:   byLevel[models.LogLevelError],
		Warnings: byLevel[models.LogLevelWarn],
	}
	for _, l := range logs {
		if l.Anomaly {
			stats.Anomalies++
		}
	}
	return stats
}

// Export acknowledges an export of the filtered log lines. Nothing is written.
func (lm *LogMonitoring) Export(f LogFilter) models.Ack {
	n := len(lm.List(f))
	logrus.Infof("Export requested for %d log entries", n)
	return models.Ack{
		Action:  "export",
		Message: fmt.Sprintf("Exported %d log entries", n),
		Count:   n,
		At:      lm.opts.Now(),
	}
}

func (lm *LogMonitoring) emit(kind EventKind, id string, rec interface{}, evicted int) {
	publish(lm.opts.Sink, lm.opts.Now, Event{
		View:     ViewLogs,
		Kind:     kind,
		RecordID: id,
		Record:   rec,
		Len:      lm.feed.Len(),
		Evicted:  evicted,
	})
}
