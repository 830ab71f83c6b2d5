package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Editor     EditorConfig     `yaml:"editor"`
	Backend    BackendConfig    `yaml:"backend"`
	Storage    StorageConfig    `yaml:"storage"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Sensor     SensorConfig     `yaml:"sensor"`
	Retention  RetentionConfig  `yaml:"retention"`
}

// ServerConfig holds the headless editing API settings.
type ServerConfig struct {
	Address     string    `yaml:"address"`
	Port        int       `yaml:"port"`
	DBPath      string    `yaml:"db_path"`
	MaxBodySize SizeBytes `yaml:"max_body_size"`
	ReadTimeout Duration  `yaml:"read_timeout"`
	RateLimit   struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	// AllowedOrigins lists origins answered with CORS headers. "*" allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EditorConfig tunes the document engine.
type EditorConfig struct {
	// Plan selects the structural limits: "free" or "premium".
	Plan          string   `yaml:"plan"`
	HistoryWindow Duration `yaml:"history_window"`
	HistoryLimit  int      `yaml:"history_limit"`
	PreviewDelay  Duration `yaml:"preview_delay"`
}

// BackendConfig points at the remote send/restore/save service.
type BackendConfig struct {
	URL     string   `yaml:"url"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

type StorageConfig struct {
	DisableWAL bool `yaml:"disable_wal"`
	Sync       bool `yaml:"sync"`
}

type SchedulingConfig struct {
	// DefaultCron is used for repeating schedules that do not name one.
	DefaultCron string `yaml:"default_cron"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig controls operation traces written under the state dir.
type TelemetryConfig struct {
	Traces        bool      `yaml:"traces"`
	QueueCapacity int       `yaml:"queue_capacity"`
	FlushInterval Duration  `yaml:"flush_interval"`
	FileMaxSize   SizeBytes `yaml:"file_max_size"`
}

// SensorConfig sets when the state volume counts as too full to serve.
type SensorConfig struct {
	PollInterval   Duration `yaml:"poll_interval"`
	DiskHighPct    int      `yaml:"disk_high_pct"`
	DiskLowPct     int      `yaml:"disk_low_pct"`
	RecoveryWindow Duration `yaml:"recovery_window"`
}

// RetentionConfig prunes old trace and crash files from the state dir.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	// Period accepts Go durations or days, e.g. "7d".
	Period string `yaml:"period"`
	DryRun bool   `yaml:"dry_run"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "25MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseSize(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func (s SizeBytes) String() string { return humanize.Bytes(uint64(s)) }

func parseSize(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration supports YAML strings like "250ms" or plain numbers of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}
