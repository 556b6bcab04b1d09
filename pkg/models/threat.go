package models

import "time"

// ThreatStatus represents the investigation state of a detected threat
type ThreatStatus string

const (
	ThreatStatusActive        ThreatStatus = "active"
	ThreatStatusInvestigating ThreatStatus = "investigating"
	ThreatStatusResolved      ThreatStatus = "resolved"
)

// Threat represents a detection produced by the threat engine
type Threat struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Severity    Severity     `json:"severity"`
	Source      string       `json:"source"`
	Target      string       `json:"target"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	Confidence  int          `json:"confidence"` // 0-100
	Status      ThreatStatus `json:"status"`
}

// ThreatStats holds per-severity and per-status threat counters
type ThreatStats struct {
	Total      int                  `json:"total"`
	BySeverity map[Severity]int     `json:"bySeverity"`
	ByStatus   map[ThreatStatus]int `json:"byStatus"`
	Scanning   bool                 `json:"scanning"`
}
