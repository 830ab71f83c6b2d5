package config

import (
	"errors"
	"fmt"

	"github.com/adhocore/gronx"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
)

// ValidateConfig fails fast on values the service cannot run with.
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	var errs []error
	if eff.DBPath == "" {
		errs = append(errs, fmt.Errorf("database path is empty: set -db, EMBEDGEN_DB_PATH or server.db_path"))
	}
	if !schema.ValidPlan(cfg.Editor.Plan) {
		errs = append(errs, fmt.Errorf("editor.plan must be %q or %q, got %q", schema.PlanFree, schema.PlanPremium, cfg.Editor.Plan))
	}
	if cfg.Editor.HistoryWindow < 0 || cfg.Editor.PreviewDelay < 0 {
		errs = append(errs, fmt.Errorf("editor debounce windows must not be negative"))
	}
	if cfg.Editor.HistoryLimit < 1 {
		errs = append(errs, fmt.Errorf("editor.history_limit must be at least 1"))
	}
	if !gronx.IsValid(cfg.Scheduling.DefaultCron) {
		errs = append(errs, fmt.Errorf("invalid scheduling.default_cron: %s", cfg.Scheduling.DefaultCron))
	}
	if cfg.Retention.Enabled && !gronx.IsValid(cfg.Retention.Cron) {
		errs = append(errs, fmt.Errorf("invalid retention.cron: %s", cfg.Retention.Cron))
	}
	if s := cfg.Sensor; s.DiskHighPct > 100 || s.DiskLowPct >= s.DiskHighPct {
		errs = append(errs, fmt.Errorf("sensor thresholds must satisfy disk_low_pct < disk_high_pct <= 100"))
	}
	if cfg.Backend.URL == "" {
		logger.Warn("backend_not_configured", "effect", "send, restore and save endpoints are disabled")
	}
	return errors.Join(errs...)
}

// Summary renders the effective config for the startup log, without secrets.
func (eff EffectiveConfigResult) Summary() []string {
	c := eff.Config
	backend := c.Backend.URL
	if backend == "" {
		backend = "not configured"
	}
	return []string{
		"listen: " + eff.Addr,
		"db path: " + eff.DBPath,
		"source: " + eff.Source,
		"plan: " + c.Editor.Plan,
		fmt.Sprintf("history: %d steps, %s window", c.Editor.HistoryLimit, c.Editor.HistoryWindow),
		"preview delay: " + c.Editor.PreviewDelay.String(),
		"max body: " + c.Server.MaxBodySize.String(),
		"backend: " + backend,
		"log level: " + c.Logging.Level,
	}
}
