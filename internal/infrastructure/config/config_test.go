package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

const validConfig = `
logging:
  level: debug
cache:
  path: /tmp/test-applink.db
devices:
  - serial: JE8-UK-NAA0001A
    family: vacuum
    root_topic: "N223"
    credential: secret
    mode: local
    local:
      host: 192.168.1.50
      port: 1883
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if len(cfg.Devices) != 1 {
		t.Fatalf("len(Devices) = %d, want 1", len(cfg.Devices))
	}
	if cfg.Devices[0].Serial != "JE8-UK-NAA0001A" {
		t.Errorf("Devices[0].Serial = %q, want %q", cfg.Devices[0].Serial, "JE8-UK-NAA0001A")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Defaults not present in the file should survive.
	if !cfg.Cache.WALMode {
		t.Error("Cache.WALMode = false, want default true")
	}
	if cfg.Session.CacheFallbackDelay != 60 {
		t.Errorf("Session.CacheFallbackDelay = %d, want 60", cfg.Session.CacheFallbackDelay)
	}
	if got := cfg.GetCacheFallbackDelay(); got != 60*time.Second {
		t.Errorf("GetCacheFallbackDelay() = %v, want 60s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, validConfig)

	t.Setenv("APPLINK_CACHE_PATH", "/tmp/override.db")
	t.Setenv("APPLINK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Path != "/tmp/override.db" {
		t.Errorf("Cache.Path = %q, want env override", cfg.Cache.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no devices",
			mutate:  func(c *Config) { c.Devices = nil },
			wantErr: "at least one device",
		},
		{
			name:    "missing serial",
			mutate:  func(c *Config) { c.Devices[0].Serial = "" },
			wantErr: "serial is required",
		},
		{
			name: "duplicate serial",
			mutate: func(c *Config) {
				c.Devices = append(c.Devices, c.Devices[0])
			},
			wantErr: "duplicates",
		},
		{
			name:    "unknown family",
			mutate:  func(c *Config) { c.Devices[0].Family = "toaster" },
			wantErr: "family must be",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Devices[0].Mode = "carrier-pigeon" },
			wantErr: "mode must be",
		},
		{
			name: "local mode without host",
			mutate: func(c *Config) {
				c.Devices[0].Mode = ModeLocal
				c.Devices[0].Local.Host = ""
			},
			wantErr: "local.host is required",
		},
		{
			name: "cloud mode without email",
			mutate: func(c *Config) {
				c.Devices[0].Mode = ModeCloud
				c.Cloud.Email = ""
			},
			wantErr: "cloud.email is required",
		},
		{
			name: "replay mode without log path",
			mutate: func(c *Config) {
				c.Devices[0].Mode = ModeReplay
			},
			wantErr: "replay.log_path is required",
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
			},
			wantErr: "influxdb.token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Devices = []DeviceConfig{{
				Serial:     "JE8-UK-NAA0001A",
				Family:     FamilyVacuum,
				RootTopic:  "N223",
				Credential: "secret",
				Mode:       ModeLocal,
				Local:      LocalConfig{Host: "127.0.0.1", Port: 1883},
			}}
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := defaultConfig()
	cfg.Devices = []DeviceConfig{{
		Serial:    "VS6-EU-HJA1234A",
		Family:    FamilyAirTreatment,
		RootTopic: "438",
		Mode:      ModeReplay,
		Replay:    ReplayConfig{LogPath: "testdata/replay.jsonl"},
	}}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}
