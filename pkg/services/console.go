package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// TabState is one entry of the tab bar
type TabState struct {
	Name    string `json:"name"`
	Mounted bool   `json:"mounted"`
	Active  bool   `json:"active"`
}

// Console owns the seven views and their mount lifecycle. Mounting a view
// always builds a fresh, re-seeded instance; unmounting discards its state.
// In single-tab mode (keepAlive off) only the active tab is mounted.
type Console struct {
	ctx       context.Context
	opts      Options
	keepAlive bool

	mu     sync.Mutex
	views  map[string]View
	active string
}

// NewConsole creates a console with no view mounted. ctx bounds every timer
// the console starts.
func NewConsole(ctx context.Context, opts Options, keepAlive bool) *Console {
	return &Console{
		ctx:       ctx,
		opts:      opts.withDefaults(),
		keepAlive: keepAlive,
		views:     make(map[string]View),
	}
}

// Start mounts every view when keepAlive is on, else only defaultTab
func (c *Console) Start(defaultTab string) error {
	if !c.keepAlive {
		return c.Activate(defaultTab)
	}
	for _, tab := range Tabs {
		if err := c.Mount(tab); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.active = defaultTab
	c.mu.Unlock()
	return nil
}

func (c *Console) newView(tab string) (View, error) {
	switch tab {
	case ViewDashboard:
		return NewDashboard(c.opts), nil
	case ViewThreats:
		return NewThreatDetection(c.opts), nil
	case ViewPackets:
		return NewPacketAnalysis(c.opts), nil
	case ViewAlerts:
		return NewAlertCenter(c.opts), nil
	case ViewLogs:
		return NewLogMonitoring(c.opts), nil
	case ViewNetwork:
		return NewNetworkMonitor(c.opts), nil
	case ViewSettings:
		return NewSettingsPanel(c.opts), nil
	default:
		return nil, fmt.Errorf("tab %q: %w", tab, ErrUnknownView)
	}
}

// Mount builds and mounts a fresh instance of tab. Mounting a tab that is
// already mounted keeps the existing instance.
func (c *Console) Mount(tab string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mountLocked(tab)
}

func (c *Console) mountLocked(tab string) error {
	if _, ok := c.views[tab]; ok {
		return nil
	}
	v, err := c.newView(tab)
	if err != nil {
		return err
	}
	if err := v.Mount(c.ctx); err != nil {
		return fmt.Errorf("failed to mount %s: %w", tab, err)
	}
	c.views[tab] = v
	logrus.Infof("Mounted %s view", tab)
	publish(c.opts.Sink, c.opts.Now, Event{View: tab, Kind: EventMount})
	return nil
}

// Unmount stops tab's timers and discards its state. Unmounting a tab that
// is not mounted is a no-op.
func (c *Console) Unmount(tab string) error {
	if !isTab(tab) {
		return fmt.Errorf("tab %q: %w", tab, ErrUnknownView)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmountLocked(tab)
	return nil
}

func (c *Console) unmountLocked(tab string) {
	v, ok := c.views[tab]
	if !ok {
		return
	}
	delete(c.views, tab)
	v.Unmount()
	if c.active == tab {
		c.active = ""
	}
	logrus.Infof("Unmounted %s view", tab)
	publish(c.opts.Sink, c.opts.Now, Event{View: tab, Kind: EventUnmount})
}

// Activate switches the active tab. Without keepAlive the previous tab is
// unmounted first, as switching tabs did in the browser; the new tab is
// mounted fresh unless it is already mounted.
func (c *Console) Activate(tab string) error {
	if !isTab(tab) {
		return fmt.Errorf("tab %q: %w", tab, ErrUnknownView)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == tab {
		if _, ok := c.views[tab]; ok {
			return nil
		}
	}
	if !c.keepAlive && c.active != "" {
		c.unmountLocked(c.active)
	}
	if err := c.mountLocked(tab); err != nil {
		return err
	}
	c.active = tab
	return nil
}

// Tabs returns the tab bar in order
func (c *Console) Tabs() []TabState {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TabState, 0, len(Tabs))
	for _, tab := range Tabs {
		_, mounted := c.views[tab]
		out = append(out, TabState{Name: tab, Mounted: mounted, Active: tab == c.active})
	}
	return out
}

// Active returns the active tab name
func (c *Console) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close unmounts every view
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tab := range Tabs {
		c.unmountLocked(tab)
	}
	logrus.Info("Console closed")
}

func (c *Console) view(tab string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[tab]
	if !ok {
		return nil, fmt.Errorf("%s: %w", tab, ErrViewNotMounted)
	}
	return v, nil
}

// Dashboard returns the mounted overview
func (c *Console) Dashboard() (*Dashboard, error) {
	v, err := c.view(ViewDashboard)
	if err != nil {
		return nil, err
	}
	return v.(*Dashboard), nil
}

// Threats returns the mounted threat detection view
func (c *Console) Threats() (*ThreatDetection, error) {
	v, err := c.view(ViewThreats)
	if err != nil {
		return nil, err
	}
	return v.(*ThreatDetection), nil
}

// Packets returns the mounted packet inspector
func (c *Console) Packets() (*PacketAnalysis, error) {
	v, err := c.view(ViewPackets)
	if err != nil {
		return nil, err
	}
	return v.(*PacketAnalysis), nil
}

// Alerts returns the mounted alert center
func (c *Console) Alerts() (*AlertCenter, error) {
	v, err := c.view(ViewAlerts)
	if err != nil {
		return nil, err
	}
	return v.(*AlertCenter), nil
}

// Logs returns the mounted log viewer
func (c *Console) Logs() (*LogMonitoring, error) {
	v, err := c.view(ViewLogs)
	if err != nil {
		return nil, err
	}
	return v.(*LogMonitoring), nil
}

// Network returns the mounted network monitor
func (c *Console) Network() (*NetworkMonitor, error) {
	v, err := c.view(ViewNetwork)
	if err != nil {
		return nil, err
	}
	return v.(*NetworkMonitor), nil
}

// Settings returns the mounted settings panel
func (c *Console) Settings() (*SettingsPanel, error) {
	v, err := c.view(ViewSettings)
	if err != nil {
		return nil, err
	}
	return v.(*SettingsPanel), nil
}

func isTab(tab string) bool {
	for _, t := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}
