package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisvault/aegis-monitor/pkg/config"
	"github.com/aegisvault/aegis-monitor/pkg/services"
	"github.com/aegisvault/aegis-monitor/pkg/timeplus"
)

// TestTimeplusMirror drives a live feed into a real Timeplus instance. Set
// AEGIS_E2E_TIMEPLUS=host:port to run it.
func TestTimeplusMirror(t *testing.T) {
	addr := os.Getenv("AEGIS_E2E_TIMEPLUS")
	if addr == "" {
		t.Skip("Skipping Timeplus mirror test - set AEGIS_E2E_TIMEPLUS to run it")
	}

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	cfg.Timeplus.Address = addr
	cfg.Timeplus.StreamPrefix = "aegis_e2e_"

	client, err := timeplus.NewClient(&cfg.Timeplus)
	require.NoError(t, err, "Failed to create Timeplus client")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, timeplus.SetupStreams(ctx, client, cfg.Timeplus.StreamPrefix))
	require.NoError(t, CheckTimeplusStreams(ctx, client, cfg.Timeplus.StreamPrefix))

	sink := timeplus.NewSink(client, cfg.Timeplus.StreamPrefix, cfg.Timeplus.BufferSize)
	sinkCtx, stopSink := context.WithCancel(ctx)
	sinkDone := make(chan struct{})
	go func() {
		sink.Run(sinkCtx)
		close(sinkDone)
	}()

	stack := StartStack(fastOptions(), sink)
	conn, err := stack.DialFeed(services.ViewLogs)
	require.NoError(t, err)
	_, err = WaitForEvent(conn, 2*time.Second, func(e services.Event) bool { return e.Kind == services.EventInsert })
	require.NoError(t, err)
	conn.Close()
	stack.Close()

	stopSink()
	<-sinkDone
	assert.Greater(t, sink.Written(), int64(0))
	assert.Zero(t, sink.Dropped())
}
