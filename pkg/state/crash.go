package state

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

// sensitiveEnv matches environment variables left out of crash dumps.
var sensitiveEnv = []string{"TOKEN", "SECRET", "PASSWORD", "KEY"}

// WriteCrashDump writes reason, err, the environment and every goroutine
// stack to a new file in dir and returns its path.
func WriteCrashDump(dir, reason string, err error) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("crash-%d.log", now.UnixNano()))
	f, ferr := os.Create(path)
	if ferr != nil {
		return "", fmt.Errorf("create crash dump: %w", ferr)
	}
	defer f.Close()

	fmt.Fprintf(f, "time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(f, "reason: %s\n", reason)
	if err != nil {
		fmt.Fprintf(f, "error: %v\n", err)
	}
	fmt.Fprintf(f, "\n--- environ ---\n")
	for _, e := range os.Environ() {
		fmt.Fprintln(f, redactEnv(e))
	}
	fmt.Fprintf(f, "\n--- goroutine stacks ---\n")
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	if _, werr := f.Write(buf[:n]); werr != nil {
		return path, werr
	}
	return path, nil
}

func redactEnv(kv string) string {
	name, _, ok := strings.Cut(kv, "=")
	if !ok {
		return kv
	}
	upper := strings.ToUpper(name)
	for _, s := range sensitiveEnv {
		if strings.Contains(upper, s) {
			return name + "=<redacted>"
		}
	}
	return kv
}

// Crash writes a crash dump to the crash folder and terminates the process.
func Crash(reason string, err error) {
	if PathsVar.Crash == "" {
		logger.Error("crash_path_not_initialized", "reason", reason, "error", err)
		logger.Sync()
		os.Exit(1)
	}
	path, derr := WriteCrashDump(PathsVar.Crash, reason, err)
	if derr != nil {
		logger.Error("crash_dump_failed", "error", derr, "reason", reason)
	} else {
		logger.Error("crash_dump_written_exiting", "path", path, "reason", reason, "error", err)
	}
	logger.Sync()
	os.Exit(1)
}
