package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisvault/aegis-monitor/pkg/feed"
	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/services"
	"github.com/aegisvault/aegis-monitor/pkg/simulator"
)

// fastOptions runs the log feed quickly and parks every other timer
func fastOptions() services.Options {
	opts := services.DefaultOptions()
	for _, f := range []*services.FeedOptions{&opts.Alerts, &opts.Threats, &opts.Packets, &opts.Network} {
		f.Interval = time.Hour
	}
	opts.Logs = services.FeedOptions{Interval: 2 * time.Millisecond, Capacity: 8, Probability: 1}
	opts.DashboardInterval = time.Hour
	opts.ScanDelay = 20 * time.Millisecond
	opts.IDStrategy = feed.IDStrategySequence
	opts.Random = simulator.NewSeededRandom(42)
	return opts
}

func getJSON(t *testing.T, url string, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestLiveLogFeedStaysBounded(t *testing.T) {
	stack := StartStack(fastOptions())
	defer stack.Close()

	conn, err := stack.DialFeed(services.ViewLogs)
	require.NoError(t, err)
	defer conn.Close()

	// Wait until the feed has wrapped past its capacity
	evt, err := WaitForEvent(conn, 2*time.Second, func(e services.Event) bool {
		return e.Kind == services.EventInsert && e.Evicted > 0
	})
	require.NoError(t, err)
	assert.Equal(t, services.ViewLogs, evt.View)
	assert.Equal(t, 8, evt.Len)

	var logs []models.LogEntry
	getJSON(t, stack.Server.URL+"/api/logs", &logs)
	assert.LessOrEqual(t, len(logs), 8)
	require.NotEmpty(t, logs)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].Timestamp.After(logs[i-1].Timestamp), "newest first")
	}
}

func TestAlertTriageOverHTTP(t *testing.T) {
	stack := StartStack(fastOptions())
	defer stack.Close()

	conn, err := stack.DialFeed(services.ViewAlerts)
	require.NoError(t, err)
	defer conn.Close()

	body, _ := json.Marshal(models.UpdateAlertStatusRequest{Status: models.AlertStatusResolved})
	req, err := http.NewRequest(http.MethodPut, stack.Server.URL+"/api/alerts/A002/status", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	evt, err := WaitForEvent(conn, time.Second, func(e services.Event) bool {
		return e.Kind == services.EventUpdate
	})
	require.NoError(t, err)
	assert.Equal(t, "A002", evt.RecordID)

	var counts models.AlertCounts
	getJSON(t, stack.Server.URL+"/api/alerts/counts", &counts)
	assert.Equal(t, 2, counts.Resolved)
}

func TestThreatScanOverHTTP(t *testing.T) {
	stack := StartStack(fastOptions())
	defer stack.Close()

	conn, err := stack.DialFeed(services.ViewThreats)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := http.Post(stack.Server.URL+"/api/threats/scan", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	evt, err := WaitForEvent(conn, 2*time.Second, func(e services.Event) bool {
		return e.Kind == services.EventScan
	})
	require.NoError(t, err)
	assert.Equal(t, 6, evt.Len)

	var threats []models.Threat
	getJSON(t, stack.Server.URL+"/api/threats", &threats)
	require.Len(t, threats, 6)
	assert.Equal(t, evt.RecordID, threats[0].ID)
	assert.Equal(t, "Scan Result", threats[0].Type)
}
