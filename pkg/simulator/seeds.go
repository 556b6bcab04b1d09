package simulator

import (
	"time"

	"github.com/aegisvault/aegis-monitor/pkg/models"
)

// seedTime returns 2024-01-15 at the given wall clock time, in UTC
func seedTime(hour, min, sec int) time.Time {
	return time.Date(2024, time.January, 15, hour, min, sec, 0, time.UTC)
}

// SeedAlerts returns the alerts an alert center starts with, newest first
func SeedAlerts() []models.Alert {
	return []models.Alert{
		{
			ID:          "A001",
			Title:       "Malware Detection",
			Description: "Suspicious executable detected with known malware signatures",
			Severity:    models.SeverityCritical,
			Status:      models.AlertStatusNew,
			Timestamp:   seedTime(14, 30, 25),
			Source:      "192.168.1.100",
			Category:    "Malware",
		},
		{
			ID:          "A002",
			Title:       "Brute Force Attack",
			Description: "Multiple failed login attempts detected from external IP",
			Severity:    models.SeverityHigh,
			Status:      models.AlertStatusAcknowledged,
			Timestamp:   seedTime(14, 25, 10),
			Source:      "198.51.100.42",
			Category:    "Authentication",
		},
		{
			ID:          "A003",
			Title:       "Network Anomaly",
			Description: "Unusual network traffic patterns detected",
			Severity:    models.SeverityMedium,
			Status:      models.AlertStatusNew,
			Timestamp:   seedTime(14, 20, 15),
			Source:      "10.0.0.1",
			Category:    "Network",
		},
		{
			ID:          "A004",
			Title:       "Phishing Attempt",
			Description: "Suspicious email with malicious links detected",
			Severity:    models.SeverityHigh,
			Status:      models.AlertStatusResolved,
			Timestamp:   seedTime(14, 15, 30),
			Source:      "mail.example.com",
			Category:    "Email",
		},
		{
			ID:          "A005",
			Title:       "Port Scan",
			Description: "Systematic port scanning activity detected",
			Severity:    models.SeverityLow,
			Status:      models.AlertStatusAcknowledged,
			Timestamp:   seedTime(14, 10, 45),
			Source:      "172.16.0.100",
			Category:    "Network",
		},
	}
}

// SeedThreats returns the threats the detection view starts with, newest first
func SeedThreats() []models.Threat {
	return []models.Threat{
		{
			ID:          "T001",
			Type:        "Malware",
			Severity:    models.SeverityCritical,
			Source:      "203.0.113.1",
			Target:      "192.168.1.100",
			Description: "Suspicious executable detected with malware signatures",
			Timestamp:   seedTime(14, 30, 25),
			Confidence:  95,
			Status:      models.ThreatStatusActive,
		},
		{
			ID:          "T002",
			Type:        "Brute Force",
			Severity:    models.SeverityHigh,
			Source:      "198.51.100.42",
			Target:      "192.168.1.50",
			Description: "Multiple failed SSH login attempts detected",
			Timestamp:   seedTime(14, 25, 10),
			Confidence:  88,
			Status:      models.ThreatStatusInvestigating,
		},
		{
			ID:          "T003",
			Type:        "DDoS",
			Severity:    models.SeverityMedium,
			Source:      "Multiple",
			Target:      "192.168.1.1",
			Description: "Abnormal traffic volume detected",
			Timestamp:   seedTime(14, 20, 15),
			Confidence:  72,
			Status:      models.ThreatStatusResolved,
		},
		{
			ID:          "T004",
			Type:        "Phishing",
			Severity:    models.SeverityHigh,
			Source:      "185.199.108.153",
			Target:      "192.168.1.75",
			Description: "Suspicious email with malicious attachments",
			Timestamp:   seedTime(14, 15, 30),
			Confidence:  91,
			Status:      models.ThreatStatusActive,
		},
		{
			ID:          "T005",
			Type:        "Port Scan",
			Severity:    models.SeverityLow,
			Source:      "172.16.0.100",
			Target:      "192.168.1.0/24",
			Description: "Systematic port scanning activity detected",
			Timestamp:   seedTime(14, 10, 45),
			Confidence:  65,
			Status:      models.ThreatStatusResolved,
		},
	}
}

// SeedLogs returns the log lines the viewer starts with, newest first
func SeedLogs() []models.LogEntry {
	return []models.LogEntry{
		{ID: "1", Timestamp: seedTime(14, 30, 25), Level: models.LogLevelError, Source: "auth.service",
			Message: "Failed login attempt for user admin from 192.168.1.100", Category: "Authentication", Anomaly: true},
		{ID: "2", Timestamp: seedTime(14, 30, 20), Level: models.LogLevelInfo, Source: "nginx",
			Message: "GET /api/users - 200 OK - 45ms", Category: "Web Server"},
		{ID: "3", Timestamp: seedTime(14, 30, 15), Level: models.LogLevelWarn, Source: "system.monitor",
			Message: "High CPU usage detected: 89%", Category: "System", Anomaly: true},
		{ID: "4", Timestamp: seedTime(14, 30, 10), Level: models.LogLevelDebug, Source: "database",
			Message: "Query executed: SELECT * FROM users WHERE active = true", Category: "Database"},
		{ID: "5", Timestamp: seedTime(14, 30, 5), Level: models.LogLevelError, Source: "firewall",
			Message: "Blocked connection attempt from 203.0.113.1", Category: "Network", Anomaly: true},
	}
}

// SeedPackets returns the packets the inspector starts with, newest first
func SeedPackets() []models.PacketRecord {
	return []models.PacketRecord{
		{ID: "1", Timestamp: seedTime(14, 30, 25), Source: "192.168.1.100", Destination: "203.0.113.1",
			Protocol: "TCP", Length: 1500, Info: "HTTP GET request", Flags: []string{"PSH", "ACK"},
			Payload: "GET /api/data HTTP/1.1\r\nHost: example.com\r\n"},
		{ID: "2", Timestamp: seedTime(14, 30, 24), Source: "203.0.113.1", Destination: "192.168.1.100",
			Protocol: "TCP", Length: 1024, Info: "HTTP Response", Flags: []string{"PSH", "ACK"},
			Payload: "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n"},
		{ID: "3", Timestamp: seedTime(14, 30, 23), Source: "192.168.1.50", Destination: "8.8.8.8",
			Protocol: "UDP", Length: 64, Info: "DNS Query", Flags: []string{},
			Payload: "DNS Query for example.com"},
		{ID: "4", Timestamp: seedTime(14, 30, 22), Source: "8.8.8.8", Destination: "192.168.1.50",
			Protocol: "UDP", Length: 128, Info: "DNS Response", Flags: []string{},
			Payload: "DNS Response: 203.0.113.1"},
		{ID: "5", Timestamp: seedTime(14, 30, 21), Source: "192.168.1.75", Destination: "172.16.0.1",
			Protocol: "ICMP", Length: 84, Info: "Ping Request", Flags: []string{},
			Payload: "ICMP Echo Request"},
	}
}

// SeedConnections returns the connections the network monitor starts with
func SeedConnections() []models.NetworkConnection {
	return []models.NetworkConnection{
		{ID: "1", Source: "192.168.1.100", Destination: "203.0.113.1", Protocol: "TCP", Port: 443,
			Status: models.ConnectionActive, Bytes: 2048576, Packets: 1534, Duration: "00:05:23", Risk: models.RiskLow},
		{ID: "2", Source: "192.168.1.50", Destination: "8.8.8.8", Protocol: "UDP", Port: 53,
			Status: models.ConnectionActive, Bytes: 1024, Packets: 8, Duration: "00:00:02", Risk: models.RiskLow},
		{ID: "3", Source: "192.168.1.75", Destination: "172.16.0.1", Protocol: "TCP", Port: 22,
			Status: models.ConnectionActive, Bytes: 45632, Packets: 89, Duration: "00:12:45", Risk: models.RiskMedium},
		{ID: "4", Source: "10.0.0.1", Destination: "192.168.1.100", Protocol: "TCP", Port: 80,
			Status: models.ConnectionFiltered, Bytes: 0, Packets: 0, Duration: "00:00:00", Risk: models.RiskHigh},
	}
}

// SeedNetworkStats is the network monitor header before the first refresh
func SeedNetworkStats() models.NetworkStats {
	return models.NetworkStats{
		TotalConnections:  247,
		ActiveConnections: 156,
		Bandwidth:         "45.7 Mbps",
		PacketsPerSecond:  1247,
		Threats:           8,
		Latency:           "12ms",
	}
}

// SeedMetrics returns the four overview cards
func SeedMetrics() []models.Metric {
	return []models.Metric{
		{Label: "Threats Detected", Value: "47", Change: "+12%", Trend: models.TrendUp},
		{Label: "Active Alerts", Value: "8", Change: "-23%", Trend: models.TrendDown},
		{Label: "Network Health", Value: "98.7%", Change: "+0.3%", Trend: models.TrendUp},
		{Label: "Monitored Endpoints", Value: "1,247", Change: "+45", Trend: models.TrendUp},
	}
}

// SeedRecentAlerts returns the static recent activity list of the overview
func SeedRecentAlerts() []models.RecentAlert {
	return []models.RecentAlert{
		{ID: 1, Type: "critical", Message: "Suspicious SSH login attempts detected", Time: "2 minutes ago", IP: "192.168.1.100"},
		{ID: 2, Type: "warning", Message: "Unusual network traffic pattern", Time: "5 minutes ago", IP: "10.0.0.45"},
		{ID: 3, Type: "info", Message: "Security scan completed successfully", Time: "12 minutes ago", IP: "localhost"},
		{ID: 4, Type: "critical", Message: "Malware signature detected in packet", Time: "18 minutes ago", IP: "203.0.113.1"},
	}
}

// SeedThreatData returns the 24h threat histogram of the overview
func SeedThreatData() []models.ThreatPoint {
	return []models.ThreatPoint{
		{Time: "00:00", Threats: 5},
		{Time: "04:00", Threats: 12},
		{Time: "08:00", Threats: 23},
		{Time: "12:00", Threats: 34},
		{Time: "16:00", Threats: 28},
		{Time: "20:00", Threats: 47},
	}
}
