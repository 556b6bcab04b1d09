package models

import "time"

// PacketRecord represents a captured packet in the packet inspector
type PacketRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Protocol    string    `json:"protocol"`
	Length      int       `json:"length"`
	Info        string    `json:"info"`
	Flags       []string  `json:"flags"`
	Payload     string    `json:"payload"`
}

// PacketStats summarizes the packet buffer
type PacketStats struct {
	Total      int            `json:"total"`
	ByProtocol map[string]int `json:"byProtocol"`
	Capturing  bool           `json:"capturing"`
}

// Upload describes a capture file accepted by the packet inspector.
// The content is never decoded.
type Upload struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	At       time.Time `json:"at"`
}
