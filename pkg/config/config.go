// Package config provides TOML configuration loading for meshbeacon.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration structure.
type Config struct {
	Beacon    BeaconConfig    `toml:"beacon"`
	Transport TransportConfig `toml:"transport"`
	Sensors   SensorsConfig   `toml:"sensors"`
}

// BeaconConfig holds settings for the beacon loop itself.
type BeaconConfig struct {
	// Target is the destination node: a decimal node number, a "!hex"
	// node id, a node name known to the registry, or "broadcast".
	Target   string `toml:"target"`
	Interval string `toml:"interval"`
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

// TransportConfig selects and tunes the radio delivery strategy.
type TransportConfig struct {
	Kind    string `toml:"kind"`    // session, serial or cli
	Port    string `toml:"port"`    // empty means auto-detect
	Baud    int    `toml:"baud"`    // serial strategy only
	Settle  string `toml:"settle"`  // device boot delay after opening the port
	Command string `toml:"command"` // cli strategy only
	Timeout string `toml:"timeout"` // per-invocation limit, cli strategy only
}

// SensorsConfig holds the per-sensor enable flags and calibration.
type SensorsConfig struct {
	Battery BatterySensorConfig `toml:"battery"`
	Climate ClimateSensorConfig `toml:"climate"`
}

// BatterySensorConfig configures the battery level source.
type BatterySensorConfig struct {
	Enabled *bool  `toml:"enabled"`
	Backend string `toml:"backend"` // node or host
}

// IsEnabled reports whether the battery sensor is on. Unset means enabled.
func (c *BatterySensorConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ClimateSensorConfig configures the temperature/humidity source.
type ClimateSensorConfig struct {
	Enabled *bool  `toml:"enabled"`
	Backend string `toml:"backend"` // dht22, bme280 or host
	GPIOPin int    `toml:"gpio_pin"`
	I2CAddr int    `toml:"i2c_addr"`
}

// IsEnabled reports whether the climate sensor is on. Unset means enabled.
func (c *ClimateSensorConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ParseInterval parses the beacon send interval. Intervals under one second
// are rejected.
func (b *BeaconConfig) ParseInterval() (time.Duration, error) {
	d, err := time.ParseDuration(b.Interval)
	if err != nil {
		return 0, fmt.Errorf("parsing interval %q: %w", b.Interval, err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("interval %s is below the 1s minimum", d)
	}
	return d, nil
}

// ParseSettle parses the serial settle delay.
func (t *TransportConfig) ParseSettle() (time.Duration, error) {
	return time.ParseDuration(t.Settle)
}

// ParseTimeout parses the cli invocation timeout.
func (t *TransportConfig) ParseTimeout() (time.Duration, error) {
	return time.ParseDuration(t.Timeout)
}

// Load reads and parses a TOML config file, applying defaults for unset
// values. A missing or unreadable file is not fatal: the returned Config
// carries full defaults and the error describes what went wrong, so callers
// can log a warning and keep going.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		applyDefaults(cfg)
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		cfg = &Config{}
		applyDefaults(cfg)
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	cfg.Beacon.DBPath = ExpandPath(cfg.Beacon.DBPath)
	return cfg, nil
}

// ExpandPath expands tilde (~) to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

func applyDefaults(cfg *Config) {

	// Beacon defaults
	if cfg.Beacon.Target == "" {
		cfg.Beacon.Target = "2658499212"
	}
	if cfg.Beacon.Interval == "" {
		cfg.Beacon.Interval = "60s"
	}
	if cfg.Beacon.DBPath == "" {
		cfg.Beacon.DBPath = "/var/lib/meshbeacon/nodes.db"
	}
	if cfg.Beacon.LogLevel == "" {
		cfg.Beacon.LogLevel = "info"
	}

	// Transport defaults
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = "session"
	}
	if cfg.Transport.Baud == 0 {
		cfg.Transport.Baud = 115200
	}
	if cfg.Transport.Settle == "" {
		cfg.Transport.Settle = "2s"
	}
	if cfg.Transport.Command == "" {
		cfg.Transport.Command = "meshtastic"
	}
	if cfg.Transport.Timeout == "" {
		cfg.Transport.Timeout = "10s"
	}

	// Sensor defaults
	if cfg.Sensors.Battery.Backend == "" {
		cfg.Sensors.Battery.Backend = "node"
	}
	if cfg.Sensors.Climate.Backend == "" {
		cfg.Sensors.Climate.Backend = "dht22"
	}
	if cfg.Sensors.Climate.GPIOPin == 0 {
		cfg.Sensors.Climate.GPIOPin = 4
	}
	if cfg.Sensors.Climate.I2CAddr == 0 {
		cfg.Sensors.Climate.I2CAddr = 0x76
	}
}
