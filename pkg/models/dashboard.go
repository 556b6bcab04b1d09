package models

import "time"

// Trend is the direction indicator on a dashboard metric card
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Metric is one card on the overview dashboard
type Metric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  Trend  `json:"trend"`
}

// RecentAlert is an entry in the dashboard's recent activity list
type RecentAlert struct {
	ID      int    `json:"id"`
	Type    string `json:"type"` // critical, warning, info
	Message string `json:"message"`
	Time    string `json:"time"`
	IP      string `json:"ip"`
}

// ThreatPoint is one bucket of the 24h threat histogram
type ThreatPoint struct {
	Time    string `json:"time"`
	Threats int    `json:"threats"`
}

// HostStats describes the machine the collector runs on
type HostStats struct {
	Hostname      string  `json:"hostname"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	DiskPercent   float64 `json:"diskPercent"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
}

// Overview is the full payload of the overview dashboard
type Overview struct {
	Metrics      []Metric      `json:"metrics"`
	RecentAlerts []RecentAlert `json:"recentAlerts"`
	ThreatData   []ThreatPoint `json:"threatData"`
	Host         *HostStats    `json:"host,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Ack is the observable acknowledgement returned by export and save actions.
// Nothing is written anywhere when one is produced.
type Ack struct {
	Action  string    `json:"action"`
	Message string    `json:"message"`
	Count   int       `json:"count"`
	At      time.Time `json:"at"`
}
