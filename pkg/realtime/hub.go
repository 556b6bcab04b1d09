package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/services"
)

// Message is the envelope pushed to every subscriber
type Message struct {
	Type  string          `json:"type"` // event / hello
	Event *services.Event `json:"event,omitempty"`
	Data  interface{}     `json:"data,omitempty"`
	TS    string          `json:"ts"`
}

// Client is one live subscriber. Send is closed when the hub drops it.
type Client struct {
	Send  chan []byte
	views map[string]bool
}

// Wants reports whether the client subscribed to view. An empty filter wants everything.
func (c *Client) Wants(view string) bool {
	return len(c.views) == 0 || c.views[view]
}

type broadcast struct {
	view string
	data []byte
}

// Hub fans view events out to websocket and SSE subscribers
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	done       chan struct{}
	dropped    int64
}

var _ services.EventSink = (*Hub)(nil)

// NewHub creates a hub. Call Run to start delivering messages.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan broadcast, 256),
		done:       make(chan struct{}),
	}
}

// Run delivers messages until ctx is cancelled, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.Send)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for c := range h.clients {
				if !c.Wants(msg.view) {
					continue
				}
				select {
				case c.Send <- msg.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			// Slow readers are kicked
			for _, c := range slow {
				logrus.Warn("Dropping slow realtime subscriber")
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
}

// Subscribe registers a client for the given views (all views when none are
// given). A non-nil greeting is queued as the client's first message. It
// returns nil once the hub has stopped.
func (h *Hub) Subscribe(greeting interface{}, views ...string) *Client {
	c := &Client{Send: make(chan []byte, 64), views: make(map[string]bool)}
	for _, v := range views {
		if v != "" {
			c.views[v] = true
		}
	}
	select {
	case <-h.done:
		return nil
	default:
	}
	if greeting != nil {
		b, _ := json.Marshal(Message{
			Type: "hello",
			Data: greeting,
			TS:   time.Now().Format(time.RFC3339),
		})
		c.Send <- b
	}
	select {
	case h.register <- c:
		return c
	case <-h.done:
		return nil
	}
}

// Unsubscribe drops a client. It is safe to call after the hub dropped it.
func (h *Hub) Unsubscribe(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected subscribers
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts evt to every subscriber of its view. A full broadcast
// queue drops the event rather than stalling the feed timer.
func (h *Hub) Publish(evt services.Event) {
	b, err := json.Marshal(Message{
		Type:  "event",
		Event: &evt,
		TS:    time.Now().Format(time.RFC3339),
	})
	if err != nil {
		logrus.Errorf("Failed to encode %s event: %v", evt.View, err)
		return
	}
	select {
	case h.broadcast <- broadcast{view: evt.View, data: b}:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// Dropped returns the number of events discarded because the hub was busy
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
