package sensor

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisk struct {
	mu   sync.Mutex
	used uint64
}

func (f *fakeDisk) set(pct uint64) {
	f.mu.Lock()
	f.used = pct
	f.mu.Unlock()
}

func (f *fakeDisk) stat(string) (Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Usage{Total: 100, Available: 100 - f.used}, nil
}

func TestDiskAlertHysteresis(t *testing.T) {
	mock := clock.NewMock()
	disk := &fakeDisk{used: 50}
	s := NewSensor(MonitorConfig{
		DiskHighPct:    90,
		DiskLowPct:     80,
		RecoveryWindow: time.Minute,
		Clock:          mock,
		Stat:           disk.stat,
	})

	s.Check()
	require.NoError(t, s.Healthy())

	disk.set(95)
	s.Check()
	assert.ErrorContains(t, s.Healthy(), "95.0% used")

	// between the thresholds the alert stays up
	disk.set(85)
	mock.Add(2 * time.Minute)
	s.Check()
	assert.Error(t, s.Healthy())

	disk.set(70)
	s.Check()
	assert.Error(t, s.Healthy())
	mock.Add(time.Minute)
	s.Check()
	assert.NoError(t, s.Healthy())
}

func TestStatfsReadsRealVolume(t *testing.T) {
	u, err := Statfs(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, u.Total, uint64(0))
	assert.LessOrEqual(t, u.UsedPct(), 100.0)
}

func TestStartPollsUntilStopped(t *testing.T) {
	mock := clock.NewMock()
	disk := &fakeDisk{used: 10}
	s := NewSensor(MonitorConfig{PollInterval: time.Second, DiskHighPct: 90, DiskLowPct: 80, Clock: mock, Stat: disk.stat})
	s.Start()

	disk.set(99)
	mock.Add(time.Second)
	assert.Eventually(t, func() bool { return s.Healthy() != nil }, time.Second, 10*time.Millisecond)
	s.Stop()
}
