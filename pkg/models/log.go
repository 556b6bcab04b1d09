package models

import "time"

// LogLevel is the severity of a log line
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelDebug LogLevel = "DEBUG"
)

// LogLevels lists every log level
var LogLevels = []LogLevel{LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelDebug}

// Valid reports whether l is a known log level
func (l LogLevel) Valid() bool {
	for _, v := range LogLevels {
		if l == v {
			return true
		}
	}
	return false
}

// LogEntry is a single line in the log viewer
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Anomaly   bool      `json:"anomaly"`
}

// LogStats holds the counters shown above the log table
type LogStats struct {
	Total     int `json:"total"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Anomalies int `json:"anomalies"`
}
