package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// AlertFilter selects alerts in the alert center. Empty fields and "all"
// place no constraint.
type AlertFilter struct {
	Status string `query:"status"`
	Query  string `query:"q"`
}

// AlertCenter manages the alert feed and its triage lifecycle
type AlertCenter struct {
	lifecycle
	opts   Options
	feed   *feed.Feed[models.Alert]
	source *feed.Source[models.Alert]
	runner *feed.Runner

	selMu    sync.RWMutex
	selected string
}

// NewAlertCenter creates an unmounted alert center holding the seed alerts
func NewAlertCenter(opts Options) *AlertCenter {
	opts = opts.withDefaults()
	gen := simulator.NewGenerator(opts.Random)
	seed := simulator.SeedAlerts()

	ac := &AlertCenter{
		opts: opts,
		feed: feed.New(opts.Alerts.Capacity, func(a models.Alert) string { return a.ID }, seed...),
	}
	ac.source = &feed.Source[models.Alert]{
		Feed:        ac.feed,
		IDs:         opts.idSource("A", 3, len(seed)),
		Generate:    gen.Alert,
		Probability: opts.Alerts.Probability,
		Chance:      gen.Chance,
		OnInsert: func(a models.Alert, evicted []models.Alert) {
			ac.forgetSelection(evicted)
			ac.emit(EventInsert, a.ID, a, len(evicted))
		},
	}
	ac.runner = feed.NewRunner(ViewAlerts, opts.Alerts.Interval, func(now time.Time) {
		ac.source.Tick(now)
	})
	return ac
}

// Name returns the tab name of the view
func (ac *AlertCenter) Name() string { return ViewAlerts }

// Mount starts the alert timer
func (ac *AlertCenter) Mount(ctx context.Context) error {
	return ac.mount(ctx, ac.runner)
}

// Unmount stops the alert timer
func (ac *AlertCenter) Unmount() {
	ac.unmount()
}

// Tick runs one timer step immediately
func (ac *AlertCenter) Tick(now time.Time) (models.Alert, bool) {
	return ac.source.Tick(now)
}

// List returns the alerts matching the filter, newest first
func (ac *AlertCenter) List(f AlertFilter) []models.Alert {
	return ac.feed.Filter(feed.All(
		feed.Equals(f.Status, func(a models.Alert) string { return string(a.Status) }),
		feed.Any(
			feed.Contains(f.Query,
				func(a models.Alert) string { return a.Title },
				func(a models.Alert) string { return a.Description },
				func(a models.Alert) string { return a.Category },
			),
			feed.ContainsExact(f.Query, func(a models.Alert) string { return a.Source }),
		),
	))
}

// Get returns a single alert
func (ac *AlertCenter) Get(id string) (models.Alert, error) {
	a, ok := ac.feed.Get(id)
	if !ok {
		return models.Alert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// Counts computes the alert counters over the whole feed
func (ac *AlertCenter) Counts() models.AlertCounts {
	alerts := ac.feed.Snapshot()
	byStatus := feed.CountBy(alerts, func(a models.Alert) models.AlertStatus { return a.Status })
	bySeverity := feed.CountBy(alerts, func(a models.Alert) models.Severity { return a.Severity })

	return models.AlertCounts{
		Total:        len(alerts),
		New:          byStatus[models.AlertStatusNew],
		Acknowledged: byStatus[models.AlertStatusAcknowledged],
		Resolved:     byStatus[models.AlertStatusResolved],
		Critical:     bySeverity[models.SeverityCritical],
	}
}

// Select marks an alert as the one shown in the detail pane
func (ac *AlertCenter) Select(id string) (models.Alert, error) {
	a, err := ac.Get(id)
	if err != nil {
		return models.Alert{}, err
	}
	ac.selMu.Lock()
	ac.selected = id
	ac.selMu.Unlock()
	return a, nil
}

// Selected returns the alert in the detail pane, if any
func (ac *AlertCenter) Selected() (models.Alert, bool) {
	ac.selMu.RLock()
	id := ac.selected
	ac.selMu.RUnlock()

	if id == "" {
		return models.Alert{}, false
	}
	return ac.feed.Get(id)
}

// SetStatus moves an alert along its lifecycle. Re-applying the current
// status is accepted and changes nothing.
func (ac *AlertCenter) SetStatus(id string, status models.AlertStatus) (models.Alert, error) {
	if !status.Valid() {
		return models.Alert{}, fmt.Errorf("alert status %q: %w", status, ErrInvalidValue)
	}

	var updated models.Alert
	var transitionErr error
	found := ac.feed.Update(id, func(a *models.Alert) {
		if !a.Status.CanTransitionTo(status) {
			transitionErr = fmt.Errorf("alert %s %s -> %s: %w", id, a.Status, status, ErrInvalidTransition)
			return
		}
		a.Status = status
		updated = *a
	})
	if !found {
		return models.Alert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if transitionErr != nil {
		return models.Alert{}, transitionErr
	}

	logrus.Infof("Alert %s marked %s", id, status)
	ac.emit(EventUpdate, id, updated, 0)
	return updated, nil
}

// Delete removes an alert and clears the selection if it pointed at it.
// Deleting an alert that is already gone returns ErrNotFound and leaves
// the feed unchanged.
func (ac *AlertCenter) Delete(id string) error {
	if !ac.feed.Delete(id) {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}

	ac.selMu.Lock()
	if ac.selected == id {
		ac.selected = ""
	}
	ac.selMu.Unlock()

	logrus.Infof("Alert %s deleted", id)
	ac.emit(EventDelete, id, nil, 0)
	return nil
}

// Export acknowledges an export of the filtered alerts. Nothing is written.
func (ac *AlertCenter) Export(f AlertFilter) models.Ack {
	n := len(ac.List(f))
	logrus.Infof("Export requested for %d alerts", n)
	return models.Ack{
		Action:  "export",
		Message: fmt.Sprintf("Exported %d alerts", n),
		Count:   n,
		At:      ac.opts.Now(),
	}
}

func (ac *AlertCenter) forgetSelection(evicted []models.Alert) {
	if len(evicted) == 0 {
		return
	}
	ac.selMu.Lock()
	defer ac.selMu.Unlock()
	for _, a := range evicted {
		if a.ID == ac.selected {
			ac.selected = ""
		}
	}
}

func (ac *AlertCenter) emit(kind EventKind, id string, rec interface{}, evicted int) {
	publish(ac.opts.Sink, ac.opts.Now, Event{
		View:     ViewAlerts,
		Kind:     kind,
		RecordID: id,
		Record:   rec,
		Len:      ac.feed.Len(),
		Evicted:  evicted,
	})
}
