package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/aegisvault/aegis-monitor/pkg/models"
)

// SettingsSavedMessage is the acknowledgement shown after Save
const SettingsSavedMessage = "Settings saved successfully!"

// SettingsPanel holds the options of the settings tab. Nothing is persisted:
// Save only acknowledges and the values are lost when the view unmounts.
type SettingsPanel struct {
	lifecycle
	opts Options

	mu       sync.RWMutex
	settings models.Settings
}

// NewSettingsPanel creates a settings panel with the factory defaults
func NewSettingsPanel(opts Options) *SettingsPanel {
	return &SettingsPanel{
		opts:     opts.withDefaults(),
		settings: models.DefaultSettings(),
	}
}

// Name returns the tab name of the view
func (sp *SettingsPanel) Name() string { return ViewSettings }

// Mount activates the panel. It owns no timer.
func (sp *SettingsPanel) Mount(ctx context.Context) error {
	return sp.mount(ctx)
}

// Unmount deactivates the panel
func (sp *SettingsPanel) Unmount() {
	sp.unmount()
}

// Get returns the current settings
func (sp *SettingsPanel) Get() models.Settings {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.settings
}

// Update changes one setting. The category and key use the JSON names
// (for example "security", "confidenceThreshold") and value must have the
// setting's type.
func (sp *SettingsPanel) Update(category, key string, value interface{}) (models.Settings, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	raw, err := json.Marshal(sp.settings)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	var doc map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	section, ok := doc[category]
	if !ok {
		return models.Settings{}, fmt.Errorf("settings category %q: %w", category, ErrNotFound)
	}
	current, ok := section[key]
	if !ok {
		return models.Settings{}, fmt.Errorf("setting %s.%s: %w", category, key, ErrNotFound)
	}
	if !sameKind(current, value) {
		return models.Settings{}, fmt.Errorf("setting %s.%s expects %T, got %T: %w", category, key, current, value, ErrInvalidValue)
	}
	if allowed, ok := settingRules[category+"."+key]; ok && !allowed(value) {
		return models.Settings{}, fmt.Errorf("setting %s.%s value %v out of range: %w", category, key, value, ErrInvalidValue)
	}
	section[key] = value

	raw, err = json.Marshal(doc)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	var next models.Settings
	if err := json.Unmarshal(raw, &next); err != nil {
		return models.Settings{}, fmt.Errorf("setting %s.%s: %v: %w", category, key, err, ErrInvalidValue)
	}

	sp.settings = next
	logrus.Infof("Setting %s.%s changed to %v", category, key, value)
	publish(sp.opts.Sink, sp.opts.Now, Event{View: ViewSettings, Kind: EventUpdate, RecordID: category + "." + key, Record: value})
	return next, nil
}

// Save acknowledges the current settings without writing them anywhere
func (sp *SettingsPanel) Save() models.Ack {
	logrus.WithField("settings", sp.Get()).Info("Saving settings")
	return models.Ack{
		Action:  "save",
		Message: SettingsSavedMessage,
		Count:   1,
		At:      sp.opts.Now(),
	}
}

// Reset restores the factory defaults
func (sp *SettingsPanel) Reset() models.Settings {
	sp.mu.Lock()
	sp.settings = models.DefaultSettings()
	s := sp.settings
	sp.mu.Unlock()

	logrus.Info("Settings reset to defaults")
	publish(sp.opts.Sink, sp.opts.Now, Event{View: ViewSettings, Kind: EventUpdate, Record: s})
	return s
}

// ExportYAML renders the current settings as YAML
func (sp *SettingsPanel) ExportYAML() ([]byte, error) {
	out, err := yaml.Marshal(sp.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to render settings: %w", err)
	}
	return out, nil
}

// settingRules constrains the settings that are chosen from a list or a range
var settingRules = map[string]func(v interface{}) bool{
	"notifications.alertThreshold": oneOf("low", "medium", "high", "critical"),
	"security.confidenceThreshold": within(50, 100),
	"network.logRetention":         within(1, 365),
	"system.performanceMode":       oneOf("performance", "balanced", "power-saving"),
	"system.logLevel":              oneOf("debug", "info", "warn", "error"),
}

func oneOf(values ...string) func(v interface{}) bool {
	return func(v interface{}) bool {
		s, _ := v.(string)
		for _, allowed := range values {
			if s == allowed {
				return true
			}
		}
		return false
	}
}

func within(lo, hi int64) func(v interface{}) bool {
	return func(v interface{}) bool {
		n, ok := asInt(v)
		return ok && n >= lo && n <= hi
	}
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n == float64(int64(n))
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// sameKind reports whether value can replace current in a JSON document:
// booleans for booleans, whole numbers for numbers, strings for strings.
func sameKind(current, value interface{}) bool {
	switch current.(type) {
	case bool:
		_, ok := value.(bool)
		return ok
	case string:
		_, ok := value.(string)
		return ok
	case float64:
		_, ok := asInt(value)
		return ok
	}
	return false
}
