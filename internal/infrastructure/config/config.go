package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Appliance Link.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	Cloud    CloudConfig    `yaml:"cloud"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Session  SessionConfig  `yaml:"session"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CacheConfig contains settings for the SQLite status cache.
type CacheConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// CloudConfig contains settings for the appliance vendor's cloud API.
// Credentials fetched from the API are used for cloud broker sessions.
type CloudConfig struct {
	APIURL string `yaml:"api_url"`
	// BrokerHost is the cloud MQTT broker hostname.
	BrokerHost string `yaml:"broker_host"`
	Email      string `yaml:"email"`
	Country    string `yaml:"country"`
	// Password is normally supplied via APPLINK_CLOUD_PASSWORD.
	Password string `yaml:"password"`
}

// InfluxDBConfig contains settings for the optional telemetry sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// SessionConfig contains tuning knobs shared by all device sessions.
type SessionConfig struct {
	// CacheFallbackDelay is how long WaitUntilInitialised waits for live
	// data before falling back to a restored cache entry (seconds).
	// 0 disables the fallback and waits indefinitely.
	CacheFallbackDelay int `yaml:"cache_fallback_delay"`
}

// Connection mode values for DeviceConfig.Mode.
const (
	ModeLocal  = "local"
	ModeCloud  = "cloud"
	ModeReplay = "replay"
)

// Device family values for DeviceConfig.Family.
const (
	FamilyVacuum       = "vacuum"
	FamilyAirTreatment = "airtreatment"
)

// DeviceConfig describes one appliance the daemon should maintain a
// session for.
type DeviceConfig struct {
	// Serial is the appliance serial number, used as the broker username
	// and as the cache namespace.
	Serial string `yaml:"serial"`

	// Family selects the message schemas and command table.
	Family string `yaml:"family"`

	// RootTopic is the per-model topic namespace segment (e.g. "276").
	RootTopic string `yaml:"root_topic"`

	// Credential is the local broker password. Ignored for cloud sessions,
	// which fetch rotatable credentials from the cloud API.
	Credential string `yaml:"credential"`

	// Mode selects the transport: local, cloud or replay.
	Mode string `yaml:"mode"`

	Local  LocalConfig  `yaml:"local"`
	Replay ReplayConfig `yaml:"replay"`
}

// LocalConfig contains local broker connection details.
type LocalConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
}

// ReplayConfig contains settings for the replay transport.
type ReplayConfig struct {
	// LogPath is the path to a recorded message log (JSON lines).
	LogPath string `yaml:"log_path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: APPLINK_SECTION_KEY
// For example: APPLINK_CACHE_PATH, APPLINK_CLOUD_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Cache: CacheConfig{
			Path:        "./data/appliancelink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Cloud: CloudConfig{
			APIURL: "https://appliance-api.example.com",
		},
		Session: SessionConfig{
			CacheFallbackDelay: 60,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: APPLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cache
	if v := os.Getenv("APPLINK_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}

	// Cloud credentials (never commit these to config files)
	if v := os.Getenv("APPLINK_CLOUD_EMAIL"); v != "" {
		cfg.Cloud.Email = v
	}
	if v := os.Getenv("APPLINK_CLOUD_PASSWORD"); v != "" {
		cfg.Cloud.Password = v
	}

	// InfluxDB
	if v := os.Getenv("APPLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("APPLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Cache.Path == "" {
		errs = append(errs, "cache.path is required")
	}

	if len(c.Devices) == 0 {
		errs = append(errs, "at least one device must be configured")
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		prefix := fmt.Sprintf("devices[%d]", i)

		if d.Serial == "" {
			errs = append(errs, prefix+".serial is required")
		} else if seen[d.Serial] {
			errs = append(errs, prefix+".serial duplicates an earlier device")
		}
		seen[d.Serial] = true

		if d.RootTopic == "" {
			errs = append(errs, prefix+".root_topic is required")
		}

		switch d.Family {
		case FamilyVacuum, FamilyAirTreatment:
		default:
			errs = append(errs, prefix+".family must be vacuum or airtreatment")
		}

		switch d.Mode {
		case ModeLocal:
			if d.Local.Host == "" {
				errs = append(errs, prefix+".local.host is required for local mode")
			}
			if d.Local.Port < 1 || d.Local.Port > 65535 {
				errs = append(errs, prefix+".local.port must be between 1 and 65535")
			}
		case ModeCloud:
			if c.Cloud.Email == "" {
				errs = append(errs, "cloud.email is required for cloud mode devices (set APPLINK_CLOUD_EMAIL)")
			}
		case ModeReplay:
			if d.Replay.LogPath == "" {
				errs = append(errs, prefix+".replay.log_path is required for replay mode")
			}
		default:
			errs = append(errs, prefix+".mode must be local, cloud or replay")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set APPLINK_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetCacheFallbackDelay returns the cache fallback delay as a Duration.
// Zero means no fallback (wait indefinitely for live data).
func (c *Config) GetCacheFallbackDelay() time.Duration {
	return time.Duration(c.Session.CacheFallbackDelay) * time.Second
}
