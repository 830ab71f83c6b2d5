// Package retention prunes old operation traces and crash dumps from the
// state directory on a cron schedule.
package retention

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

var FilesPurged = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "embedgen_retention_files_purged_total",
	Help: "Trace and crash files removed by retention runs.",
})

func init() {
	prometheus.MustRegister(FilesPurged)
}

const (
	defaultLeaseTTL = 10 * time.Minute
	retryDelay      = 30 * time.Second
)

type Config struct {
	// Dirs are pruned non-recursively. The lease lives in the first one.
	Dirs   []string
	Cron   string
	Period time.Duration
	DryRun bool
	Clock  clock.Clock
}

// Result summarizes one run.
type Result struct {
	Scanned int
	Purged  int
	Skipped bool
}

type Manager struct {
	cfg   Config
	lease *fileLease
	owner string

	mu      sync.Mutex
	running bool

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func New(cfg Config) (*Manager, error) {
	if len(cfg.Dirs) == 0 {
		return nil, errors.New("retention needs at least one directory")
	}
	if !gronx.New().IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid retention cron %q", cfg.Cron)
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("retention period must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Manager{
		cfg:    cfg,
		lease:  newFileLease(cfg.Dirs[0], cfg.Clock),
		owner:  uuid.NewString(),
		stopCh: make(chan struct{}),
	}, nil
}

func (m *Manager) Start() {
	logger.Info("retention_enabled", "cron", m.cfg.Cron, "period", m.cfg.Period.String())
	m.wg.Add(1)
	go m.scheduleLoop()
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *Manager) sleep(d time.Duration) bool {
	t := m.cfg.Clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-m.stopCh:
		return false
	}
}

func (m *Manager) scheduleLoop() {
	defer m.wg.Done()
	for {
		now := m.cfg.Clock.Now()
		next, err := gronx.NextTickAfter(m.cfg.Cron, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", m.cfg.Cron, "error", err)
			if !m.sleep(retryDelay) {
				return
			}
			continue
		}
		if !m.sleep(next.Sub(now)) {
			return
		}
		if _, err := m.RunOnce(); err != nil {
			logger.Error("retention_run_error", "error", err)
		}
	}
}

// RunOnce prunes every file older than the period. Overlapping calls and
// runs whose lease is held elsewhere return a skipped result.
func (m *Manager) RunOnce() (Result, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return Result{Skipped: true}, nil
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	ok, err := m.lease.Acquire(m.owner, defaultLeaseTTL)
	if err != nil {
		return Result{}, fmt.Errorf("lease acquire failed: %w", err)
	}
	if !ok {
		return Result{Skipped: true}, nil
	}
	defer func() {
		if err := m.lease.Release(m.owner); err != nil {
			logger.Error("retention_lease_release_error", "error", err)
		}
	}()

	cutoff := m.cfg.Clock.Now().Add(-m.cfg.Period)
	var res Result
	for _, dir := range m.cfg.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return res, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), leaseName) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			res.Scanned++
			if !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if m.cfg.DryRun {
				logger.Info("retention_dry_run", "path", path)
				continue
			}
			if err := os.Remove(path); err != nil {
				logger.Error("retention_purge_failed", "path", path, "error", err)
				continue
			}
			res.Purged++
			FilesPurged.Inc()
		}
	}
	logger.Info("retention_run_complete", "scanned", res.Scanned, "purged", res.Purged, "dry_run", m.cfg.DryRun)
	return res, nil
}

// ParsePeriod accepts Go durations plus a day suffix such as "30d". Empty
// means 30 days.
func ParsePeriod(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 30 * 24 * time.Hour, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid days retention %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("retention period must be positive")
	}
	return d, nil
}
