package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureStateDirs(t *testing.T) {
	root := t.TempDir()
	p := PathsFor(root)
	require.NoError(t, EnsureStateDirs(p))
	for _, dir := range []string{p.Store, p.Traces, p.Logs, p.Crash} {
		fi, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}

	// idempotent
	require.NoError(t, EnsureStateDirs(p))
}

func TestEnsureStateDirsRejectsFiles(t *testing.T) {
	root := t.TempDir()
	p := PathsFor(root)
	require.NoError(t, os.WriteFile(p.Store, []byte("x"), 0o600))
	err := EnsureStateDirs(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestEnsureStateDirsRejectsSymlinks(t *testing.T) {
	root := t.TempDir()
	p := PathsFor(root)
	require.NoError(t, os.Symlink(t.TempDir(), p.Store))
	err := EnsureStateDirs(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symlink")
}

func TestWriteCrashDump(t *testing.T) {
	t.Setenv("EMBEDGEN_BACKEND_TOKEN", "hunter2")
	dir := filepath.Join(t.TempDir(), "crash")

	path, err := WriteCrashDump(dir, "boom", errors.New("disk on fire"))
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	dump := string(raw)

	assert.Contains(t, dump, "reason: boom")
	assert.Contains(t, dump, "error: disk on fire")
	assert.Contains(t, dump, "EMBEDGEN_BACKEND_TOKEN=<redacted>")
	assert.NotContains(t, dump, "hunter2")
	assert.True(t, strings.Contains(dump, "goroutine"))
}

func TestArtifactPath(t *testing.T) {
	t.Setenv("EMBEDGEN_ARTIFACT_ROOT", "")
	assert.Empty(t, ArtifactPath("database"))

	root := t.TempDir()
	t.Setenv("EMBEDGEN_ARTIFACT_ROOT", root)
	assert.Equal(t, filepath.Join(root, "database"), ArtifactPath("database"))
}
