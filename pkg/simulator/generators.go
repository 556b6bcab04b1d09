package simulator

import (
	"fmt"
	"time"

	"github.com/aegisvault/aegis-monitor/pkg/models"
)

// Value pools the generators draw from
var (
	alertTitles     = []string{"Malware Detection", "Brute Force Attack", "Network Anomaly", "Phishing Attempt"}
	alertCategories = []string{"Malware", "Authentication", "Network", "Email"}

	threatTypes = []string{"Malware", "Brute Force", "DDoS", "Phishing", "Port Scan"}

	packetProtocols = []string{"TCP", "UDP", "ICMP"}
	packetInfos     = []string{"HTTP Request", "DNS Query", "SSH Connection", "FTP Transfer"}
	packetFlags     = []string{"PSH", "ACK", "SYN", "FIN"}

	logSources    = []string{"auth.service", "nginx", "system.monitor", "database", "firewall"}
	logMessages   = []string{"User logged in successfully", "API request processed", "System resource usage normal", "Database connection established", "Network traffic analyzed"}
	logCategories = []string{"Authentication", "Web Server", "System", "Database", "Network"}

	connectionProtocols = []string{"TCP", "UDP"}
	connectionPorts     = []int{80, 443, 22, 53, 25, 110}
	connectionStatuses  = []models.ConnectionStatus{models.ConnectionActive, models.ConnectionClosed, models.ConnectionFiltered}
	risks               = []models.Risk{models.RiskLow, models.RiskMedium, models.RiskHigh}
)

// Generator builds random records for every view from fixed value pools
type Generator struct {
	rng Random
}

// NewGenerator creates a generator drawing from rng
func NewGenerator(rng Random) *Generator {
	if rng == nil {
		rng = NewRandom()
	}
	return &Generator{rng: rng}
}

// Chance returns a number in [0,1) for probability rolls
func (g *Generator) Chance() float64 {
	return g.rng.Float64()
}

// Alert generates a new alert in the "new" status
func (g *Generator) Alert(id string, now time.Time) models.Alert {
	return models.Alert{
		ID:          id,
		Title:       pick(g.rng, alertTitles),
		Description: "Automated security alert detected by AI engine",
		Severity:    pick(g.rng, models.Severities),
		Status:      models.AlertStatusNew,
		Timestamp:   now,
		Source:      fmt.Sprintf("192.168.1.%d", g.rng.Intn(255)),
		Category:    pick(g.rng, alertCategories),
	}
}

// Threat generates an active threat with confidence in [60, 100)
func (g *Generator) Threat(id string, now time.Time) models.Threat {
	return models.Threat{
		ID:          id,
		Type:        pick(g.rng, threatTypes),
		Severity:    pick(g.rng, models.Severities),
		Source:      fmt.Sprintf("192.168.1.%d", g.rng.Intn(255)),
		Target:      fmt.Sprintf("10.0.0.%d", g.rng.Intn(255)),
		Description: "Automated threat detection alert",
		Timestamp:   now,
		Confidence:  between(g.rng, 60, 100),
		Status:      models.ThreatStatusActive,
	}
}

// ScanResult is the threat reported when a manual scan completes
func (g *Generator) ScanResult(id string, now time.Time) models.Threat {
	return models.Threat{
		ID:          id,
		Type:        "Scan Result",
		Severity:    models.SeverityMedium,
		Source:      "Internal Scanner",
		Target:      "Network",
		Description: "Scheduled security scan completed - vulnerabilities detected",
		Timestamp:   now,
		Confidence:  85,
		Status:      models.ThreatStatusActive,
	}
}

// Packet generates a captured packet of 64 to 1563 bytes
func (g *Generator) Packet(id string, now time.Time) models.PacketRecord {
	flags := make([]string, 0, len(packetFlags))
	for _, f := range packetFlags {
		if g.rng.Float64() > 0.5 {
			flags = append(flags, f)
		}
	}
	return models.PacketRecord{
		ID:          id,
		Timestamp:   now,
		Source:      fmt.Sprintf("192.168.1.%d", g.rng.Intn(255)),
		Destination: fmt.Sprintf("10.0.0.%d", g.rng.Intn(255)),
		Protocol:    pick(g.rng, packetProtocols),
		Length:      g.rng.Intn(1500) + 64,
		Info:        pick(g.rng, packetInfos),
		Flags:       flags,
		Payload:     "Captured packet data...",
	}
}

// LogEntry generates a log line; roughly 30% are flagged as anomalies
func (g *Generator) LogEntry(id string, now time.Time) models.LogEntry {
	return models.LogEntry{
		ID:        id,
		Timestamp: now,
		Level:     pick(g.rng, models.LogLevels),
		Source:    pick(g.rng, logSources),
		Message:   pick(g.rng, logMessages),
		Category:  pick(g.rng, logCategories),
		Anomaly:   g.rng.Float64() < 0.3,
	}
}

// Connection generates a network connection from the local subnet to a random address
func (g *Generator) Connection(id string, _ time.Time) models.NetworkConnection {
	return models.NetworkConnection{
		ID:          id,
		Source:      fmt.Sprintf("192.168.1.%d", g.rng.Intn(255)),
		Destination: fmt.Sprintf("%d.%d.%d.%d", g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255)),
		Protocol:    pick(g.rng, connectionProtocols),
		Port:        pick(g.rng, connectionPorts),
		Status:      pick(g.rng, connectionStatuses),
		Bytes:       int64(g.rng.Intn(1000000)),
		Packets:     int64(g.rng.Intn(1000)),
		Duration:    "00:00:01",
		Risk:        pick(g.rng, risks),
	}
}

// WalkNetworkStats returns prev nudged by a random step, the way the
// monitor header drifts between refreshes. Counters never go negative.
func (g *Generator) WalkNetworkStats(prev models.NetworkStats) models.NetworkStats {
	next := prev
	next.TotalConnections = max(0, prev.TotalConnections+g.rng.Intn(10)-5)
	next.ActiveConnections = max(0, prev.ActiveConnections+g.rng.Intn(6)-3)
	next.Bandwidth = fmt.Sprintf("%.1f Mbps", g.rng.Float64()*50+30)
	next.PacketsPerSecond = max(0, prev.PacketsPerSecond+g.rng.Intn(200)-100)
	next.Latency = fmt.Sprintf("%dms", g.rng.Intn(20)+10)
	return next
}

// ThreatIncrement is how many threats the dashboard counter grows by per refresh (0-2)
func (g *Generator) ThreatIncrement() int {
	return g.rng.Intn(3)
}
