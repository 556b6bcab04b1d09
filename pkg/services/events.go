package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

// EventKind describes what happened to a feed
type EventKind string

const (
	EventInsert  EventKind = "insert"
	EventUpdate  EventKind = "update"
	EventDelete  EventKind = "delete"
	EventStats   EventKind = "stats"
	EventScan    EventKind = "scan"
	EventMount   EventKind = "mount"
	EventUnmount EventKind = "unmount"
)

// Event is published for every change to a view's state
type Event struct {
	View     string      `json:"view"`
	Kind     EventKind   `json:"kind"`
	RecordID string      `json:"recordId,omitempty"`
	Record   interface{} `json:"record,omitempty"`
	Len      int         `json:"len"`
	Evicted  int         `json:"evicted,omitempty"`
	At       time.Time   `json:"at"`
}

// EventSink receives view events. Publish is called from the timer
// goroutines and must not block.
type EventSink interface {
	Publish(evt Event)
}

// SinkFunc adapts a function to an EventSink
type SinkFunc func(evt Event)

// Publish calls f(evt)
func (f SinkFunc) Publish(evt Event) { f(evt) }

// MultiSink fans every event out to each of its sinks in order
type MultiSink []EventSink

// Publish forwards evt to every sink
func (m MultiSink) Publish(evt Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(evt)
		}
	}
}

// publish stamps and forwards evt to sink, tolerating a nil sink
func publish(sink EventSink, now func() time.Time, evt Event) {
	if evt.At.IsZero() {
		evt.At = now()
	}
	logrus.WithFields(logrus.Fields{
		"view": evt.View,
		"kind": evt.Kind,
		"id":   evt.RecordID,
		"len":  evt.Len,
	}).Debug("Feed event")
	if sink != nil {
		sink.Publish(evt)
	}
}
