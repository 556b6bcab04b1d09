package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisvault/aegis-monitor/pkg/models"
)

// TestConsoleSingleTab tests that switching tabs unmounts the previous view
func TestConsoleSingleTab(t *testing.T) {
	rec := &recorder{}
	c := NewConsole(context.Background(), testOptions(rec), false)
	defer c.Close()

	require.NoError(t, c.Start(ViewAlerts))
	_, err := c.Alerts()
	require.NoError(t, err)

	require.NoError(t, c.Activate(ViewLogs))
	assert.Equal(t, ViewLogs, c.Active())

	_, err = c.Alerts()
	assert.ErrorIs(t, err, ErrViewNotMounted)
	_, err = c.Logs()
	assert.NoError(t, err)

	mounted := 0
	for _, tab := range c.Tabs() {
		if tab.Mounted {
			mounted++
			assert.Equal(t, ViewLogs, tab.Name)
			assert.True(t, tab.Active)
		}
	}
	assert.Equal(t, 1, mounted)
	assert.Equal(t, []EventKind{EventMount, EventUnmount}, rec.kinds(ViewAlerts))
}

// TestConsoleRemountReseeds tests that a remounted view starts from the seed again
func TestConsoleRemountReseeds(t *testing.T) {
	c := NewConsole(context.Background(), testOptions(nil), false)
	defer c.Close()
	require.NoError(t, c.Activate(ViewAlerts))

	ac, err := c.Alerts()
	require.NoError(t, err)
	require.NoError(t, ac.Delete("A001"))
	_, err = ac.SetStatus("A003", models.AlertStatusResolved)
	require.NoError(t, err)

	require.NoError(t, c.Activate(ViewDashboard))
	require.NoError(t, c.Activate(ViewAlerts))

	fresh, err := c.Alerts()
	require.NoError(t, err)
	assert.NotSame(t, ac, fresh)
	assert.Equal(t, models.AlertCounts{Total: 5, New: 2, Acknowledged: 2, Resolved: 1, Critical: 1}, fresh.Counts())
}

// TestConsoleKeepAlive tests that keepAlive mounts every view
func TestConsoleKeepAlive(t *testing.T) {
	c := NewConsole(context.Background(), testOptions(nil), true)
	require.NoError(t, c.Start(ViewDashboard))

	for _, tab := range c.Tabs() {
		assert.True(t, tab.Mounted, tab.Name)
		assert.Equal(t, tab.Name == ViewDashboard, tab.Active, tab.Name)
	}

	require.NoError(t, c.Activate(ViewPackets))
	_, err := c.Dashboard()
	assert.NoError(t, err, "keepAlive never unmounts on activate")

	c.Close()
	for _, tab := range c.Tabs() {
		assert.False(t, tab.Mounted, tab.Name)
	}
	_, err = c.Settings()
	assert.ErrorIs(t, err, ErrViewNotMounted)
}

// TestConsoleExplicitLifecycle tests mount and unmount by name
func TestConsoleExplicitLifecycle(t *testing.T) {
	c := NewConsole(context.Background(), testOptions(nil), false)
	defer c.Close()

	require.NoError(t, c.Mount(ViewThreats))
	td, err := c.Threats()
	require.NoError(t, err)

	require.NoError(t, c.Mount(ViewThreats))
	again, err := c.Threats()
	require.NoError(t, err)
	assert.Same(t, td, again, "mounting a mounted view keeps it")

	require.NoError(t, c.Unmount(ViewThreats))
	require.NoError(t, c.Unmount(ViewThreats))
	_, err = c.Threats()
	assert.ErrorIs(t, err, ErrViewNotMounted)

	assert.ErrorIs(t, c.Mount("billing"), ErrUnknownView)
	assert.ErrorIs(t, c.Unmount("billing"), ErrUnknownView)
	assert.ErrorIs(t, c.Activate("billing"), ErrUnknownView)
}

// TestConsoleAccessors tests every typed accessor after a keepAlive start
func TestConsoleAccessors(t *testing.T) {
	c := NewConsole(context.Background(), testOptions(nil), true)
	require.NoError(t, c.Start(ViewDashboard))
	defer c.Close()

	_, err := c.Dashboard()
	assert.NoError(t, err)
	_, err = c.Threats()
	assert.NoError(t, err)
	_, err = c.Packets()
	assert.NoError(t, err)
	_, err = c.Alerts()
	assert.NoError(t, err)
	_, err = c.Logs()
	assert.NoError(t, err)
	_, err = c.Network()
	assert.NoError(t, err)
	_, err = c.Settings()
	assert.NoError(t, err)
}
