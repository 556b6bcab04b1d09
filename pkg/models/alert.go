package models

import (
	"time"
)

// Severity is the ordinal category shared by alerts and threats
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity, lowest first
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

// AlertStatus represents where an alert is in its triage lifecycle
type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "new"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// AlertStatuses lists every alert status in lifecycle order
var AlertStatuses = []AlertStatus{AlertStatusNew, AlertStatusAcknowledged, AlertStatusResolved}

// Valid reports whether s is a known alert status
func (s AlertStatus) Valid() bool {
	for _, v := range AlertStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether an alert in status s may move to next.
// new -> acknowledged -> resolved, or new -> resolved. Resolved is terminal
// and nothing leads back to new. Re-applying the current status is allowed.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case AlertStatusNew:
		return next == AlertStatusAcknowledged || next == AlertStatusResolved
	case AlertStatusAcknowledged:
		return next == AlertStatusResolved
	default:
		return false
	}
}

// Alert represents an entry in the alert center
type Alert struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Status      AlertStatus `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
	Source      string      `json:"source"`
	Category    string      `json:"category"`
}

// AlertCounts is the set of counters shown above the alert list
type AlertCounts struct {
	Total        int `json:"total"`
	New          int `json:"new"`
	Acknowledged int `json:"acknowledged"`
	Resolved     int `json:"resolved"`
	Critical     int `json:"critical"`
}

// UpdateAlertStatusRequest represents the request payload for changing an alert's status
type UpdateAlertStatusRequest struct {
	Status AlertStatus `json:"status"`
}
