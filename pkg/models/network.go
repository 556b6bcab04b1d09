package models

import "fmt"

// ConnectionStatus is the observed state of a network connection
type ConnectionStatus string

const (
	ConnectionActive   ConnectionStatus = "active"
	ConnectionClosed   ConnectionStatus = "closed"
	ConnectionFiltered ConnectionStatus = "filtered"
)

// Risk grades how dangerous a connection looks
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// NetworkConnection is a row in the network monitor
type NetworkConnection struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Protocol    string           `json:"protocol"`
	Port        int              `json:"port"`
	Status      ConnectionStatus `json:"status"`
	Bytes       int64            `json:"bytes"`
	Packets     int64            `json:"packets"`
	Duration    string           `json:"duration"` // HH:MM:SS
	Risk        Risk             `json:"risk"`
}

// NetworkStats is the random-walked header of the network monitor
type NetworkStats struct {
	TotalConnections  int    `json:"totalConnections"`
	ActiveConnections int    `json:"activeConnections"`
	Bandwidth         string `json:"bandwidth"`
	PacketsPerSecond  int    `json:"packetsPerSecond"`
	Threats           int    `json:"threats"`
	Latency           string `json:"latency"`
}

// ConnectionCounts holds per-status and per-risk counters over the connection feed
type ConnectionCounts struct {
	Total    int                      `json:"total"`
	ByStatus map[ConnectionStatus]int `json:"byStatus"`
	ByRisk   map[Risk]int             `json:"byRisk"`
}

// FormatBytes renders a byte count the way the network monitor table does
func FormatBytes(bytes int64) string {
	const unit = 1024
	switch {
	case bytes < unit:
		return fmt.Sprintf("%d B", bytes)
	case bytes < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(bytes)/unit)
	case bytes < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(unit*unit*unit))
	}
}
