package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sseKeepAlive   = 15 * time.Second
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	// Origins are enforced by the CORS layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamViews reads the optional ?view=alerts,logs filter
func streamViews(c echo.Context) []string {
	raw := c.QueryParam("view")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (h *APIHandler) greeting() map[string]interface{} {
	return map[string]interface{}{
		"message": "connected",
		"active":  h.console.Active(),
		"tabs":    h.console.Tabs(),
	}
}

// StreamEvents pushes view events as server-sent events
func (h *APIHandler) StreamEvents(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Streaming unsupported"})
	}

	client := h.hub.Subscribe(h.greeting(), streamViews(c)...)
	if client == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Event stream closed"})
	}
	defer h.hub.Unsubscribe(client)

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return nil
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}

// StreamWebSocket pushes view events over a websocket. Inbound messages are
// read only to notice the peer going away.
func (h *APIHandler) StreamWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response
		logrus.Debugf("WebSocket upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()

	client := h.hub.Subscribe(h.greeting(), streamViews(c)...)
	if client == nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		return nil
	}

	go func() {
		defer h.hub.Unsubscribe(client)
		conn.SetReadLimit(maxInboundSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.hub.Unsubscribe(client)
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.Unsubscribe(client)
				return nil
			}
		}
	}
}
