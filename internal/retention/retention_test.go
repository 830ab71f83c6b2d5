package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func newManager(t *testing.T, dryRun bool) (*Manager, *clock.Mock, []string) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Now())
	dirs := []string{t.TempDir(), t.TempDir()}
	m, err := New(Config{Dirs: dirs, Cron: "* * * * *", Period: 24 * time.Hour, DryRun: dryRun, Clock: mock})
	require.NoError(t, err)
	return m, mock, dirs
}

func TestRunOncePurgesOldFiles(t *testing.T) {
	m, mock, dirs := newManager(t, false)
	old := filepath.Join(dirs[0], "trace-1.log")
	fresh := filepath.Join(dirs[0], "trace-2.log")
	dump := filepath.Join(dirs[1], "crash-1.txt")
	touch(t, old, mock.Now().Add(-48*time.Hour))
	touch(t, fresh, mock.Now().Add(-time.Hour))
	touch(t, dump, mock.Now().Add(-72*time.Hour))

	res, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 3, Purged: 2}, res)
	assert.NoFileExists(t, old)
	assert.NoFileExists(t, dump)
	assert.FileExists(t, fresh)
	assert.NoFileExists(t, filepath.Join(dirs[0], leaseName))
}

func TestRunOnceDryRunKeepsFiles(t *testing.T) {
	m, mock, dirs := newManager(t, true)
	old := filepath.Join(dirs[1], "crash-1.txt")
	touch(t, old, mock.Now().Add(-48*time.Hour))

	res, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Purged)
	assert.FileExists(t, old)
}

func TestRunOnceSkipsWhenLeaseHeld(t *testing.T) {
	m, mock, dirs := newManager(t, false)
	other := newFileLease(dirs[0], mock)
	ok, err := other.Acquire("other", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := m.RunOnce()
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	// an expired lease is taken over
	mock.Add(2 * time.Hour)
	res, err = m.RunOnce()
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.ErrorIs(t, other.Release("other"), os.ErrNotExist)
}

func TestLeaseReleaseRequiresOwner(t *testing.T) {
	l := newFileLease(t.TempDir(), clock.NewMock())
	ok, err := l.Acquire("a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.ErrorIs(t, l.Release("b"), errNotOwner)
	assert.NoError(t, l.Release("a"))
}

func TestScheduleRunsOnCron(t *testing.T) {
	m, mock, dirs := newManager(t, false)
	old := filepath.Join(dirs[0], "trace-1.log")
	touch(t, old, mock.Now().Add(-48*time.Hour))

	m.Start()
	defer m.Stop()
	require.Eventually(t, func() bool {
		mock.Add(time.Minute)
		_, err := os.Stat(old)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Dirs: []string{t.TempDir()}, Cron: "not a cron", Period: time.Hour})
	assert.Error(t, err)
	_, err = New(Config{Cron: "* * * * *", Period: time.Hour})
	assert.Error(t, err)
	_, err = New(Config{Dirs: []string{t.TempDir()}, Cron: "* * * * *"})
	assert.Error(t, err)
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"", 30 * 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"0d", 0, true},
		{"xd", 0, true},
		{"-1h", 0, true},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
