package config

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Console   ConsoleConfig   `mapstructure:"console"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	HostStats HostStatsConfig `mapstructure:"hostStats"`
	Timeplus  TimeplusConfig  `mapstructure:"timeplus"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowedOrigins"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"`
}

// LoggingConfig controls logrus output
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text or json
	File       string `mapstructure:"file"`   // empty logs to stderr only
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
}

// ConsoleConfig controls which views are mounted
type ConsoleConfig struct {
	KeepAlive  bool   `mapstructure:"keepAlive"`
	DefaultTab string `mapstructure:"defaultTab"`
	IDStrategy string `mapstructure:"idStrategy"`
}

// FeedConfig is the timer and bound of one feed
type FeedConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Capacity    int           `mapstructure:"capacity"`
	Probability float64       `mapstructure:"probability"`
}

// ThreatFeedConfig adds the manual scan delay to the threat feed
type ThreatFeedConfig struct {
	FeedConfig `mapstructure:",squash"`
	ScanDelay  time.Duration `mapstructure:"scanDelay"`
}

// DashboardConfig is the refresh period of the overview cards
type DashboardConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// FeedsConfig holds every feed's settings
type FeedsConfig struct {
	Alerts    FeedConfig       `mapstructure:"alerts"`
	Threats   ThreatFeedConfig `mapstructure:"threats"`
	Packets   FeedConfig       `mapstructure:"packets"`
	Logs      FeedConfig       `mapstructure:"logs"`
	Network   FeedConfig       `mapstructure:"network"`
	Dashboard DashboardConfig  `mapstructure:"dashboard"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HostStatsConfig controls the collector host card on the dashboard
type HostStatsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TimeplusConfig holds the Timeplus connection configuration
type TimeplusConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	Username     string `mapstructure:"username"`
	Workspace    string `mapstructure:"workspace"`
	StreamPrefix string `mapstructure:"streamPrefix"`
	BufferSize   int    `mapstructure:"bufferSize"`
}

// RedisConfig holds the Redis event channel configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowedOrigins", "*")
	v.SetDefault("server.shutdownTimeout", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxSizeMB", 10)
	v.SetDefault("logging.maxBackups", 3)
	v.SetDefault("logging.maxAgeDays", 30)

	v.SetDefault("console.keepAlive", true)
	v.SetDefault("console.defaultTab", "dashboard")
	v.SetDefault("console.idStrategy", "uuid")

	v.SetDefault("feeds.alerts.interval", "15s")
	v.SetDefault("feeds.alerts.capacity", 100)
	v.SetDefault("feeds.alerts.probability", 0.2)
	v.SetDefault("feeds.threats.interval", "10s")
	v.SetDefault("feeds.threats.capacity", 10)
	v.SetDefault("feeds.threats.probability", 0.3)
	v.SetDefault("feeds.threats.scanDelay", "3s")
	v.SetDefault("feeds.packets.interval", "1s")
	v.SetDefault("feeds.packets.capacity", 100)
	v.SetDefault("feeds.packets.probability", 1.0)
	v.SetDefault("feeds.logs.interval", "2s")
	v.SetDefault("feeds.logs.capacity", 100)
	v.SetDefault("feeds.logs.probability", 1.0)
	v.SetDefault("feeds.network.interval", "3s")
	v.SetDefault("feeds.network.capacity", 20)
	v.SetDefault("feeds.network.probability", 0.3)
	v.SetDefault("feeds.dashboard.interval", "5s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("hostStats.enabled", true)

	v.SetDefault("timeplus.enabled", false)
	v.SetDefault("timeplus.address", "localhost:8464")
	v.SetDefault("timeplus.username", "default")
	v.SetDefault("timeplus.password", "")
	v.SetDefault("timeplus.workspace", "default")
	v.SetDefault("timeplus.streamPrefix", "aegis_")
	v.SetDefault("timeplus.bufferSize", 256)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "aegis_events")
}

// RegisterFlags adds the command line overrides to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file")
	fs.String("port", "", "HTTP listen port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("keep-alive", true, "keep every view mounted")
	fs.String("default-tab", "", "tab activated at start")
}

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"port":        "server.port",
	"log-level":   "logging.level",
	"keep-alive":  "console.keepAlive",
	"default-tab": "console.defaultTab",
}

// LoadConfig loads the application configuration from defaults, an optional
// config file, AEGIS_* environment variables and command line flags, in
// increasing order of precedence. fs may be nil.
func LoadConfig(configPath string, fs *pflag.FlagSet) (*Config, error) {
	var config Config
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Allow environment variables to override config file
	// (server.port is read from AEGIS_SERVER_PORT)
	v.SetEnvPrefix("AEGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Bare LOG_LEVEL and PORT are accepted as fallbacks
	_ = v.BindEnv("logging.level", "AEGIS_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "AEGIS_SERVER_PORT", "PORT")

	// Only flags the user actually set take precedence
	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	// If config file is provided, read it
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			logrus.Warnf("Error reading config file: %v", err)
		}
	}

	// Unmarshal config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
