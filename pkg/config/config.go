package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort          = 8080
	defaultDBPath        = "./.embedgen"
	defaultMaxBodySize   = 8 * 1024 * 1024
	defaultReadTimeout   = 10 * time.Second
	defaultRateRPS       = 50
	defaultRateBurst     = 100
	defaultPlan          = "free"
	defaultHistoryWindow = time.Second
	defaultHistoryLimit  = 10
	defaultPreviewDelay  = 250 * time.Millisecond
	defaultBackendTime   = 15 * time.Second
	defaultCron          = "0 12 * * *"
	defaultLogLevel      = "info"

	defaultTraceQueue   = 1024
	defaultTraceFlush   = 2 * time.Second
	defaultTraceMaxSize = 16 * 1024 * 1024

	defaultSensorPoll     = 30 * time.Second
	defaultDiskHighPct    = 95
	defaultDiskLowPct     = 90
	defaultSensorRecovery = time.Minute

	defaultRetentionCron   = "0 3 * * *"
	defaultRetentionPeriod = "7d"
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.Server.DBPath == "" {
		c.Server.DBPath = defaultDBPath
	}
	if c.Server.MaxBodySize == 0 {
		c.Server.MaxBodySize = defaultMaxBodySize
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = defaultRateRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = defaultRateBurst
	}

	if c.Editor.Plan == "" {
		c.Editor.Plan = defaultPlan
	}
	if c.Editor.HistoryWindow == 0 {
		c.Editor.HistoryWindow = Duration(defaultHistoryWindow)
	}
	if c.Editor.HistoryLimit == 0 {
		c.Editor.HistoryLimit = defaultHistoryLimit
	}
	if c.Editor.PreviewDelay == 0 {
		c.Editor.PreviewDelay = Duration(defaultPreviewDelay)
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = Duration(defaultBackendTime)
	}
	if c.Scheduling.DefaultCron == "" {
		c.Scheduling.DefaultCron = defaultCron
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Telemetry.QueueCapacity <= 0 {
		c.Telemetry.QueueCapacity = defaultTraceQueue
	}
	if c.Telemetry.FlushInterval == 0 {
		c.Telemetry.FlushInterval = Duration(defaultTraceFlush)
	}
	if c.Telemetry.FileMaxSize == 0 {
		c.Telemetry.FileMaxSize = defaultTraceMaxSize
	}

	if c.Sensor.PollInterval == 0 {
		c.Sensor.PollInterval = Duration(defaultSensorPoll)
	}
	if c.Sensor.DiskHighPct == 0 {
		c.Sensor.DiskHighPct = defaultDiskHighPct
	}
	if c.Sensor.DiskLowPct == 0 {
		c.Sensor.DiskLowPct = defaultDiskLowPct
	}
	if c.Sensor.RecoveryWindow == 0 {
		c.Sensor.RecoveryWindow = Duration(defaultSensorRecovery)
	}

	if c.Retention.Cron == "" {
		c.Retention.Cron = defaultRetentionCron
	}
	if c.Retention.Period == "" {
		c.Retention.Period = defaultRetentionPeriod
	}
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("EMBEDGEN_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
