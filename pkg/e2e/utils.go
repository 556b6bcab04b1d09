package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/api"
	"github.com/aegisvault/aegis-monitor/pkg/realtime"
	"github.com/aegisvault/aegis-monitor/pkg/services"
	"github.com/aegisvault/aegis-monitor/pkg/timeplus"
)

// Stack is a running console served over HTTP
type Stack struct {
	Console *services.Console
	Hub     *realtime.Hub
	Server  *httptest.Server

	cancel context.CancelFunc
}

// StartStack mounts every view with opts and serves the API on a test server
func StartStack(opts services.Options, extra ...services.EventSink) *Stack {
	ctx, cancel := context.WithCancel(context.Background())

	hub := realtime.NewHub()
	go hub.Run(ctx)
	opts.Sink = append(services.MultiSink{hub}, extra...)

	console := services.NewConsole(ctx, opts, true)
	if err := console.Start(services.ViewDashboard); err != nil {
		logrus.Errorf("Failed to start console: %v", err)
	}

	e := echo.New()
	api.NewAPIHandler(console, hub).SetupRoutes(e)

	return &Stack{
		Console: console,
		Hub:     hub,
		Server:  httptest.NewServer(e),
		cancel:  cancel,
	}
}

// Close stops the server, the views and the hub
func (s *Stack) Close() {
	s.Server.Close()
	s.Console.Close()
	s.cancel()
}

// DialFeed opens a websocket on the stack following views
func (s *Stack) DialFeed(views ...string) (*websocket.Conn, error) {
	u, err := url.Parse(s.Server.URL)
	if err != nil {
		return nil, err
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	if len(views) > 0 {
		u.RawQuery = url.Values{"view": []string{strings.Join(views, ",")}}.Encode()
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

// WaitForEvent reads messages until one carries an event matching match
func WaitForEvent(conn *websocket.Conn, timeout time.Duration, match func(services.Event) bool) (services.Event, error) {
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return services.Event{}, fmt.Errorf("no matching event before %s: %w", deadline.Format(time.RFC3339), err)
		}
		var msg realtime.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return services.Event{}, fmt.Errorf("failed to decode message: %w", err)
		}
		if msg.Event != nil && match(*msg.Event) {
			return *msg.Event, nil
		}
	}
}

// CheckTimeplusStreams reports whether every mirror stream exists
func CheckTimeplusStreams(ctx context.Context, client timeplus.TimeplusClient, prefix string) error {
	for _, table := range timeplus.Tables(prefix) {
		exists, err := client.StreamExists(ctx, table.Name)
		if err != nil {
			return fmt.Errorf("failed to check stream %s: %w", table.Name, err)
		}
		if !exists {
			return fmt.Errorf("stream %s is missing", table.Name)
		}
		logrus.Infof("Stream %s is present", table.Name)
	}
	return nil
}
