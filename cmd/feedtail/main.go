package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Des1red/clihelp"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/aegisvault/aegis-monitor/pkg/realtime"
)

func printHelp() {
	fmt.Println("feedtail - follow the AegisVault live feeds from a terminal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  feedtail [flags]")
	fmt.Println()
	clihelp.Print(
		clihelp.F("--addr", "host:port", "Server address"),
		clihelp.F("--view", "list", "Comma separated views to follow (default all)"),
		clihelp.F("--raw", "", "Print each message as received"),
	)
}

func main() {
	fs := pflag.NewFlagSet("feedtail", pflag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "server address")
	views := fs.String("view", "", "comma separated views to follow")
	raw := fs.Bool("raw", false, "print raw messages")
	fs.Usage = printHelp
	fs.Parse(os.Args[1:])

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	if *views != "" {
		u.RawQuery = url.Values{"view": []string{*views}}.Encode()
	}

	logrus.Infof("Connecting to %s", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logrus.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logrus.Errorf("Read failed: %v", err)
				}
				return
			}
			if *raw {
				fmt.Println(string(data))
				continue
			}
			printMessage(data)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-done:
	case <-quit:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

// printMessage renders one hub message as a single line
func printMessage(data []byte) {
	var msg realtime.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logrus.Warnf("Unreadable message: %v", err)
		return
	}
	if msg.Event == nil {
		logrus.WithField("type", msg.Type).Infof("%v", msg.Data)
		return
	}

	evt := msg.Event
	line := []string{evt.At.Format("15:04:05"), fmt.Sprintf("%-9s", evt.View), fmt.Sprintf("%-7s", evt.Kind)}
	if evt.RecordID != "" {
		line = append(line, evt.RecordID)
	}
	line = append(line, fmt.Sprintf("len=%d", evt.Len))
	if evt.Evicted > 0 {
		line = append(line, fmt.Sprintf("evicted=%d", evt.Evicted))
	}
	fmt.Println(strings.Join(line, " "))
}
