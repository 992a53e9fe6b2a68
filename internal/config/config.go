// Package config loads and validates the YAML configuration for the
// logbook pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the base configuration object
type Config struct {
	Vessel   VesselConfig   `yaml:"vessel"`
	Storage  StorageConfig  `yaml:"storage"`
	Signals  SignalsConfig  `yaml:"signals,omitempty"`
	Tuning   TuningConfig   `yaml:"tuning,omitempty"`
	Geocoder GeocoderConfig `yaml:"geocoder,omitempty"`
	Overlays OverlayConfig  `yaml:"overlays,omitempty"`
	Render   RenderConfig   `yaml:"render,omitempty"`
}

// VesselConfig identifies the vessel whose telemetry is queried
type VesselConfig struct {
	Name    string `yaml:"name,omitempty"`
	Context string `yaml:"context,omitempty"`
}

// StorageConfig holds the configuration for the time-series backend.
// Exactly one backend must be configured.
type StorageConfig struct {
	InfluxDB    *InfluxDBConfig    `yaml:"influxdb,omitempty"`
	TimescaleDB *TimescaleDBConfig `yaml:"timescaledb,omitempty"`
}

// InfluxDBConfig describes the connection to an InfluxDB instance
type InfluxDBConfig struct {
	Scheme   string `yaml:"scheme,omitempty"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database"`
}

// TimescaleDBConfig describes the connection to a TimescaleDB instance
type TimescaleDBConfig struct {
	ConnectionString string `yaml:"connection-string"`
	Table            string `yaml:"table,omitempty"`
}

// SignalsConfig maps logical telemetry signals to the paths used by the
// time-series backend
type SignalsConfig struct {
	State         string `yaml:"state,omitempty"`
	Position      string `yaml:"position,omitempty"`
	Speed         string `yaml:"speed,omitempty"`
	Heading       string `yaml:"heading,omitempty"`
	Pressure      string `yaml:"pressure,omitempty"`
	WindSpeed     string `yaml:"wind-speed,omitempty"`
	WindDirection string `yaml:"wind-direction,omitempty"`
	Log           string `yaml:"log,omitempty"`
	Fix           string `yaml:"fix,omitempty"`
}

// TuningConfig exposes the heuristic constants of the segmentation and
// enrichment passes. These encode judgment calls about sensor noise and
// journal cadence and are expected to need tuning per vessel.
type TuningConfig struct {
	ShortSailCutoffMinutes      int   `yaml:"short-sail-cutoff-minutes,omitempty"`
	AssociationToleranceMinutes int   `yaml:"association-tolerance-minutes,omitempty"`
	FixToleranceMinutes         int   `yaml:"fix-tolerance-minutes,omitempty"`
	ManualLogToleranceMinutes   int   `yaml:"manual-log-tolerance-minutes,omitempty"`
	ContiguousMeters            int   `yaml:"contiguous-meters,omitempty"`
	MergeSameDay                *bool `yaml:"merge-same-day,omitempty"`
}

// GeocoderConfig describes the reverse-geocoding service and its retry
// policy. Attempts of 1 means a single try with no retry.
type GeocoderConfig struct {
	URL            string `yaml:"url,omitempty"`
	Email          string `yaml:"email,omitempty"`
	Attempts       int    `yaml:"attempts,omitempty"`
	BackoffSeconds int    `yaml:"backoff-seconds,omitempty"`
	CachePath      string `yaml:"cache-path,omitempty"`
}

// OverlayConfig points at the optional external overlays
type OverlayConfig struct {
	ManualLog   string `yaml:"manual-log,omitempty"`
	Annotations string `yaml:"annotations,omitempty"`
}

// RenderConfig holds the template and output settings for HTML rendering
type RenderConfig struct {
	Template string `yaml:"template,omitempty"`
	Output   string `yaml:"output,omitempty"`
}

// Load reads the configuration file, applies defaults and validates it
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills in default values for unset fields
func (c *Config) ApplyDefaults() {
	if c.Signals.State == "" {
		c.Signals.State = "navigation.state"
	}
	if c.Signals.Position == "" {
		c.Signals.Position = "navigation.position"
	}
	if c.Signals.Speed == "" {
		c.Signals.Speed = "navigation.speedOverGround"
	}
	if c.Signals.Heading == "" {
		c.Signals.Heading = "navigation.headingTrue"
	}
	if c.Signals.Pressure == "" {
		c.Signals.Pressure = "environment.outside.pressure"
	}
	if c.Signals.WindSpeed == "" {
		c.Signals.WindSpeed = "environment.wind.speedOverGround"
	}
	if c.Signals.WindDirection == "" {
		c.Signals.WindDirection = "environment.wind.directionTrue"
	}
	if c.Signals.Log == "" {
		c.Signals.Log = "navigation.log"
	}
	if c.Signals.Fix == "" {
		c.Signals.Fix = "navigation.gnss.type"
	}

	if c.Tuning.ShortSailCutoffMinutes == 0 {
		c.Tuning.ShortSailCutoffMinutes = 33
	}
	if c.Tuning.AssociationToleranceMinutes == 0 {
		c.Tuning.AssociationToleranceMinutes = 2
	}
	if c.Tuning.FixToleranceMinutes == 0 {
		c.Tuning.FixToleranceMinutes = 30
	}
	if c.Tuning.ManualLogToleranceMinutes == 0 {
		c.Tuning.ManualLogToleranceMinutes = 60
	}
	if c.Tuning.ContiguousMeters == 0 {
		c.Tuning.ContiguousMeters = 200
	}
	if c.Tuning.MergeSameDay == nil {
		merge := true
		c.Tuning.MergeSameDay = &merge
	}

	if c.Storage.InfluxDB != nil {
		if c.Storage.InfluxDB.Scheme == "" {
			c.Storage.InfluxDB.Scheme = "http"
		}
		if c.Storage.InfluxDB.Port == 0 {
			c.Storage.InfluxDB.Port = 8086
		}
	}
	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.Table == "" {
		c.Storage.TimescaleDB.Table = "telemetry_1m"
	}

	if c.Geocoder.URL == "" {
		c.Geocoder.URL = "https://nominatim.openstreetmap.org/reverse"
	}
	if c.Geocoder.Attempts == 0 {
		c.Geocoder.Attempts = 1
	}
	if c.Geocoder.BackoffSeconds == 0 {
		c.Geocoder.BackoffSeconds = 2
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Storage.InfluxDB == nil && c.Storage.TimescaleDB == nil {
		return fmt.Errorf("no storage backend configured: one of storage.influxdb or storage.timescaledb is required")
	}
	if c.Storage.InfluxDB != nil && c.Storage.TimescaleDB != nil {
		return fmt.Errorf("multiple storage backends configured: only one of storage.influxdb or storage.timescaledb may be set")
	}
	if c.Storage.InfluxDB != nil {
		if c.Storage.InfluxDB.Host == "" {
			return fmt.Errorf("storage.influxdb.host is required")
		}
		if c.Storage.InfluxDB.Database == "" {
			return fmt.Errorf("storage.influxdb.database is required")
		}
	}
	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection-string is required")
	}
	if c.Geocoder.Attempts < 1 {
		return fmt.Errorf("geocoder.attempts must be at least 1")
	}
	return nil
}

// MergeSameDay reports whether trips starting on the same UTC day as the
// previous trip's end should be merged into that trip
func (c *Config) MergeSameDay() bool {
	return c.Tuning.MergeSameDay == nil || *c.Tuning.MergeSameDay
}
