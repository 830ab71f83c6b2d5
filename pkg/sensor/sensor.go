package sensor

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

var diskUsedPct = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "embedgen_disk_used_percent",
	Help: "Used space on the volume holding the editor state.",
})

func init() {
	prometheus.MustRegister(diskUsedPct)
}

// Usage is a filesystem reading in bytes.
type Usage struct {
	Total     uint64
	Available uint64
}

func (u Usage) UsedPct() float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Total-u.Available) / float64(u.Total) * 100
}

// Statfs reads the volume holding path.
func Statfs(path string) (Usage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Usage{}, err
	}
	return Usage{
		Total:     stat.Blocks * uint64(stat.Bsize),
		Available: stat.Bavail * uint64(stat.Bsize),
	}, nil
}

type MonitorConfig struct {
	Path         string
	PollInterval time.Duration
	DiskHighPct  int
	DiskLowPct   int
	// RecoveryWindow is how long usage must stay under DiskLowPct before
	// the alert clears.
	RecoveryWindow time.Duration
	Clock          clock.Clock
	// Stat replaces Statfs, for tests.
	Stat func(path string) (Usage, error)
}

// Sensor polls disk usage under the state directory and raises an alert
// when it crosses DiskHighPct. The alert clears with hysteresis.
type Sensor struct {
	config   MonitorConfig
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu         sync.Mutex
	diskAlert  bool
	lowSince   time.Time
	lastUsedPc float64
}

func NewSensor(config MonitorConfig) *Sensor {
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Stat == nil {
		config.Stat = Statfs
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	return &Sensor{config: config, stopCh: make(chan struct{})}
}

func (s *Sensor) Start() {
	s.Check()
	t := s.config.Clock.Ticker(s.config.PollInterval)
	s.wg.Add(1)
	go s.run(t)
}

func (s *Sensor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Sensor) run(t *clock.Ticker) {
	defer s.wg.Done()
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Check()
		case <-s.stopCh:
			return
		}
	}
}

// Check takes one reading.
func (s *Sensor) Check() {
	u, err := s.config.Stat(s.config.Path)
	if err != nil {
		logger.Warn("disk_stat_failed", "path", s.config.Path, "error", err)
		return
	}
	usedPct := u.UsedPct()
	diskUsedPct.Set(usedPct)
	now := s.config.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedPc = usedPct
	switch {
	case usedPct > float64(s.config.DiskHighPct):
		s.lowSince = time.Time{}
		if !s.diskAlert {
			logger.Warn("disk_usage_high", "used_pct", usedPct, "threshold", s.config.DiskHighPct)
			s.diskAlert = true
		}
	case s.diskAlert && usedPct < float64(s.config.DiskLowPct):
		if s.lowSince.IsZero() {
			s.lowSince = now
		}
		if now.Sub(s.lowSince) >= s.config.RecoveryWindow {
			logger.Info("disk_usage_recovered", "used_pct", usedPct, "below", s.config.DiskLowPct)
			s.diskAlert = false
			s.lowSince = time.Time{}
		}
	default:
		s.lowSince = time.Time{}
	}
}

// Healthy reports an error while the disk alert is raised.
func (s *Sensor) Healthy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.diskAlert {
		return fmt.Errorf("disk usage high: %.1f%% used", s.lastUsedPc)
	}
	return nil
}
