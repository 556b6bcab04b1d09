package services

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aegisvault/aegis-monitor/pkg/models"
)

// MockHostStats is a mock implementation of HostStatsProvider
type MockHostStats struct {
	mock.Mock
}

func (m *MockHostStats) Collect(ctx context.Context) (*models.HostStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HostStats), args.Error(1)
}

// TestDashboardTick tests that only the threats card grows, by at most two per refresh
func TestDashboardTick(t *testing.T) {
	rec := &recorder{}
	d := NewDashboard(testOptions(rec))
	before := d.Metrics()
	require.Equal(t, "47", before[0].Value)

	for i := 0; i < 10; i++ {
		prev, _ := strconv.Atoi(d.Metrics()[0].Value)
		d.Tick(testNow)
		next, err := strconv.Atoi(d.Metrics()[0].Value)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next-prev, 0)
		assert.LessOrEqual(t, next-prev, 2)
	}

	after := d.Metrics()
	assert.Equal(t, before[1:], after[1:], "other cards are static")
	assert.Len(t, rec.kinds(ViewDashboard), 10)
}

// TestDashboardOverview tests the overview payload with and without host stats
func TestDashboardOverview(t *testing.T) {
	t.Run("without collector", func(t *testing.T) {
		d := NewDashboard(testOptions(nil))

		ov := d.Overview(context.Background())

		assert.Len(t, ov.Metrics, 4)
		assert.Len(t, ov.RecentAlerts, 4)
		assert.Len(t, ov.ThreatData, 6)
		assert.Equal(t, 47, ov.ThreatData[5].Threats)
		assert.Nil(t, ov.Host)
	})

	t.Run("with collector", func(t *testing.T) {
		host := &models.HostStats{Hostname: "sensor-1", CPUPercent: 12.5}
		m := new(MockHostStats)
		m.On("Collect", mock.Anything).Return(host, nil)
		opts := testOptions(nil)
		opts.HostStats = m

		ov := NewDashboard(opts).Overview(context.Background())

		assert.Equal(t, host, ov.Host)
		m.AssertExpectations(t)
	})

	t.Run("failing collector", func(t *testing.T) {
		m := new(MockHostStats)
		m.On("Collect", mock.Anything).Return(nil, errors.New("no procfs"))
		opts := testOptions(nil)
		opts.HostStats = m

		ov := NewDashboard(opts).Overview(context.Background())

		assert.Nil(t, ov.Host)
		assert.Len(t, ov.Metrics, 4)
		m.AssertExpectations(t)
	})
}
