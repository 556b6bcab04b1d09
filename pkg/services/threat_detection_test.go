package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisvault/aegis-monitor/pkg/models"
)

func threatID(t models.Threat) string { return t.ID }

// TestThreatDetectionFilter tests severity filtering and search
func TestThreatDetectionFilter(t *testing.T) {
	td := NewThreatDetection(testOptions(nil))

	tests := []struct {
		name   string
		filter ThreatFilter
		want   []string
	}{
		{name: "all", filter: ThreatFilter{Severity: "all"}, want: []string{"T001", "T002", "T003", "T004", "T005"}},
		{name: "high", filter: ThreatFilter{Severity: "high"}, want: []string{"T002", "T004"}},
		{name: "type ignores case", filter: ThreatFilter{Query: "ddos"}, want: []string{"T003"}},
		{name: "description", filter: ThreatFilter{Query: "ssh"}, want: []string{"T002"}},
		{name: "target", filter: ThreatFilter{Query: "192.168.1.75"}, want: []string{"T004"}},
		{name: "severity and search", filter: ThreatFilter{Severity: "low", Query: "scan"}, want: []string{"T005"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(td.List(tt.filter), threatID))
		})
	}
}

// TestThreatDetectionStats tests the severity and status counters
func TestThreatDetectionStats(t *testing.T) {
	td := NewThreatDetection(testOptions(nil))

	stats := td.Stats()

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.BySeverity[models.SeverityHigh])
	assert.Equal(t, 1, stats.BySeverity[models.SeverityCritical])
	assert.Equal(t, 2, stats.ByStatus[models.ThreatStatusActive])
	assert.Equal(t, 1, stats.ByStatus[models.ThreatStatusInvestigating])
	assert.Equal(t, 2, stats.ByStatus[models.ThreatStatusResolved])
	assert.False(t, stats.Scanning)
}

// TestThreatDetectionCapacity tests that the threat feed holds at most ten threats
func TestThreatDetectionCapacity(t *testing.T) {
	opts := testOptions(nil)
	opts.Threats.Probability = 1
	td := NewThreatDetection(opts)

	for i := 0; i < 25; i++ {
		td.Tick(testNow)
		assert.LessOrEqual(t, td.Stats().Total, 10)
	}
	all := td.List(ThreatFilter{})
	assert.Equal(t, "T030", all[0].ID)
	assert.Len(t, all, 10)
}

// TestRunScan tests that a scan reports a result after its delay
func TestRunScan(t *testing.T) {
	rec := &recorder{}
	td := NewThreatDetection(testOptions(rec))
	require.NoError(t, td.Mount(context.Background()))
	defer td.Unmount()

	require.NoError(t, td.RunScan())
	assert.True(t, td.Scanning())
	assert.ErrorIs(t, td.RunScan(), ErrScanInProgress)

	assert.Eventually(t, func() bool { return !td.Scanning() }, waitFor, pollEvery)

	top := td.List(ThreatFilter{})[0]
	assert.Equal(t, "Scan Result", top.Type)
	assert.Equal(t, models.SeverityMedium, top.Severity)
	assert.Equal(t, 85, top.Confidence)
	assert.Equal(t, "T006", top.ID)
	assert.Contains(t, rec.kinds(ViewThreats), EventScan)

	// a finished scan can be run again
	require.NoError(t, td.RunScan())
}

// TestRunScanRequiresMount tests that an unmounted view refuses to scan
func TestRunScanRequiresMount(t *testing.T) {
	td := NewThreatDetection(testOptions(nil))

	assert.ErrorIs(t, td.RunScan(), ErrViewNotMounted)
	assert.False(t, td.Scanning())
}

// TestUnmountAbandonsScan tests that no scan result lands after unmount
func TestUnmountAbandonsScan(t *testing.T) {
	opts := testOptions(nil)
	opts.ScanDelay = 50 * time.Millisecond
	td := NewThreatDetection(opts)
	require.NoError(t, td.Mount(context.Background()))

	require.NoError(t, td.RunScan())
	td.Unmount()

	assert.False(t, td.Scanning())
	time.Sleep(80 * time.Millisecond)
	assert.Len(t, td.List(ThreatFilter{}), 5)
}
