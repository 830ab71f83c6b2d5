package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EnvResult records which EMBEDGEN_* variables were applied.
type EnvResult struct {
	Used []string
}

// EffectiveConfigResult is the merged config and where it came from.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	// Source lists the layers that contributed, e.g. "config+env".
	Source string
}

// ParseConfigFlags parses args (without the program name).
func ParseConfigFlags(args []string) (Flags, error) {
	fset := flag.NewFlagSet("embedgen", flag.ContinueOnError)
	addr := fset.String("addr", ":8080", "HTTP listen address")
	db := fset.String("db", defaultDBPath, "Pebble DB path")
	cfg := fset.String("config", "./config.yaml", "Path to config file")
	if err := fset.Parse(args); err != nil {
		return Flags{}, err
	}

	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addr, DB: *db, Config: *cfg, Set: set}, nil
}

// ParseConfigFile loads the config file the flags or env point at. A missing
// file is only an error when it was asked for explicitly.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	path := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if flags.Set["config"] {
				return nil, false, fmt.Errorf("config file %s not found", path)
			}
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

type envVar struct {
	name  string
	apply func(c *Config, v string) error
}

func setString(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = strings.TrimSpace(v)
		return nil
	}
}

func setInt(dst func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func setBool(dst func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			*dst(c) = true
		default:
			*dst(c) = false
		}
		return nil
	}
}

func setDuration(dst func(c *Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

func setSize(dst func(c *Config) *SizeBytes) func(*Config, string) error {
	return func(c *Config, v string) error {
		s, err := parseSize(v)
		if err != nil {
			return err
		}
		*dst(c) = s
		return nil
	}
}

var envVars = []envVar{
	{"ADDR", func(c *Config, v string) error {
		if h, p, err := net.SplitHostPort(v); err == nil {
			c.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				c.Server.Port = pi
			}
			return nil
		}
		c.Server.Address = v
		return nil
	}},
	{"SERVER_PORT", setInt(func(c *Config) *int { return &c.Server.Port })},
	{"DB_PATH", setString(func(c *Config) *string { return &c.Server.DBPath })},
	{"MAX_BODY_SIZE", setSize(func(c *Config) *SizeBytes { return &c.Server.MaxBodySize })},
	{"READ_TIMEOUT", setDuration(func(c *Config) *Duration { return &c.Server.ReadTimeout })},
	{"RATE_RPS", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		c.Server.RateLimit.RPS = f
		return nil
	}},
	{"RATE_BURST", setInt(func(c *Config) *int { return &c.Server.RateLimit.Burst })},
	{"ALLOWED_ORIGINS", func(c *Config, v string) error {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
		return nil
	}},

	{"PLAN", setString(func(c *Config) *string { return &c.Editor.Plan })},
	{"HISTORY_WINDOW", setDuration(func(c *Config) *Duration { return &c.Editor.HistoryWindow })},
	{"HISTORY_LIMIT", setInt(func(c *Config) *int { return &c.Editor.HistoryLimit })},
	{"PREVIEW_DELAY", setDuration(func(c *Config) *Duration { return &c.Editor.PreviewDelay })},

	{"BACKEND_URL", setString(func(c *Config) *string { return &c.Backend.URL })},
	{"BACKEND_TOKEN", setString(func(c *Config) *string { return &c.Backend.Token })},
	{"BACKEND_TIMEOUT", setDuration(func(c *Config) *Duration { return &c.Backend.Timeout })},

	{"STORAGE_DISABLE_WAL", setBool(func(c *Config) *bool { return &c.Storage.DisableWAL })},
	{"STORAGE_SYNC", setBool(func(c *Config) *bool { return &c.Storage.Sync })},

	{"SCHEDULE_DEFAULT_CRON", setString(func(c *Config) *string { return &c.Scheduling.DefaultCron })},

	{"SENSOR_POLL_INTERVAL", setDuration(func(c *Config) *Duration { return &c.Sensor.PollInterval })},
	{"SENSOR_DISK_HIGH_PCT", setInt(func(c *Config) *int { return &c.Sensor.DiskHighPct })},
	{"SENSOR_DISK_LOW_PCT", setInt(func(c *Config) *int { return &c.Sensor.DiskLowPct })},

	{"RETENTION_ENABLED", setBool(func(c *Config) *bool { return &c.Retention.Enabled })},
	{"RETENTION_CRON", setString(func(c *Config) *string { return &c.Retention.Cron })},
	{"RETENTION_PERIOD", setString(func(c *Config) *string { return &c.Retention.Period })},

	{"LOG_LEVEL", setString(func(c *Config) *string { return &c.Logging.Level })},

	{"TELEMETRY_TRACES", setBool(func(c *Config) *bool { return &c.Telemetry.Traces })},
	{"TELEMETRY_QUEUE_CAPACITY", setInt(func(c *Config) *int { return &c.Telemetry.QueueCapacity })},
	{"TELEMETRY_FLUSH_INTERVAL", setDuration(func(c *Config) *Duration { return &c.Telemetry.FlushInterval })},
	{"TELEMETRY_FILE_MAX_SIZE", setSize(func(c *Config) *SizeBytes { return &c.Telemetry.FileMaxSize })},
}

// ApplyEnvs overlays EMBEDGEN_* variables onto cfg. lookup is os.LookupEnv
// outside tests.
func ApplyEnvs(cfg *Config, lookup func(string) (string, bool)) (EnvResult, error) {
	var res EnvResult
	var errs []error
	for _, ev := range envVars {
		name := "EMBEDGEN_" + ev.name
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := ev.apply(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		res.Used = append(res.Used, name)
	}
	return res, errors.Join(errs...)
}

// LoadEffectiveConfig layers the sources: the config file, then the
// environment, then explicitly set flags. Defaults fill the rest.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, lookup func(string) (string, bool)) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	cfg := &Config{}
	var sources []string
	if fileExists && fileCfg != nil {
		*cfg = *fileCfg
		sources = append(sources, "config")
	}

	envRes, err := ApplyEnvs(cfg, lookup)
	if err != nil {
		return res, err
	}
	if len(envRes.Used) > 0 {
		sources = append(sources, "env")
	}

	if flags.Set["addr"] {
		host, port, err := net.SplitHostPort(flags.Addr)
		if err != nil {
			return res, fmt.Errorf("invalid -addr %q: %w", flags.Addr, err)
		}
		cfg.Server.Address = host
		cfg.Server.Port = parsePort(port)
	}
	if flags.Set["db"] {
		cfg.Server.DBPath = flags.DB
	}
	if flags.Set["addr"] || flags.Set["db"] {
		sources = append(sources, "flags")
	}
	if len(sources) == 0 {
		sources = append(sources, "defaults")
	}

	cfg.ApplyDefaults()
	res.Config = cfg
	res.Addr = cfg.Addr()
	res.DBPath = cfg.Server.DBPath
	res.Source = strings.Join(sources, "+")
	return res, nil
}

// Load runs the whole flags, file, env pipeline against the process.
func Load(args []string) (EffectiveConfigResult, error) {
	flags, err := ParseConfigFlags(args)
	if err != nil {
		return EffectiveConfigResult{}, err
	}
	fileCfg, found, err := ParseConfigFile(flags)
	if err != nil {
		return EffectiveConfigResult{}, err
	}
	eff, err := LoadEffectiveConfig(flags, fileCfg, found, os.LookupEnv)
	if err != nil {
		return eff, err
	}
	return eff, ValidateConfig(eff)
}

func parsePort(p string) int {
	if pi, err := strconv.Atoi(p); err == nil {
		return pi
	}
	return 0
}
