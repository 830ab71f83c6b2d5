package retention

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

const leaseName = "retention.lock"

var errNotOwner = errors.New("lease held by another owner")

// fileLease keeps two processes sharing a state dir from pruning at once.
type fileLease struct {
	path  string
	clock clock.Clock
}

type leaseFile struct {
	Owner   string `json:"owner"`
	Expires string `json:"expires"`
}

func newFileLease(dir string, clk clock.Clock) *fileLease {
	return &fileLease{path: filepath.Join(dir, leaseName), clock: clk}
}

func (l *fileLease) write(path string, lf leaseFile) error {
	b, err := json.Marshal(lf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func (l *fileLease) read() (leaseFile, error) {
	var lf leaseFile
	data, err := os.ReadFile(l.path)
	if err != nil {
		return lf, err
	}
	err = json.Unmarshal(data, &lf)
	return lf, err
}

// Acquire takes the lease for owner. It returns false without error when a
// live lease belongs to someone else.
func (l *fileLease) Acquire(owner string, ttl time.Duration) (bool, error) {
	now := l.clock.Now()
	tmp := l.path + ".tmp"
	if err := l.write(tmp, leaseFile{Owner: owner, Expires: now.Add(ttl).Format(time.RFC3339Nano)}); err != nil {
		logger.Error("lease_tmp_write_failed", "path", tmp, "error", err)
		return false, err
	}
	// link fails when the lock already exists
	if err := os.Link(tmp, l.path); err == nil {
		_ = os.Remove(tmp)
		return true, nil
	}
	existing, err := l.read()
	if err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("read lease: %w", err)
	}
	exp, _ := time.Parse(time.RFC3339Nano, existing.Expires)
	if existing.Owner == owner || exp.Before(now) {
		if err := os.Rename(tmp, l.path); err != nil {
			logger.Error("lease_replace_failed", "error", err)
			return false, err
		}
		return true, nil
	}
	_ = os.Remove(tmp)
	logger.Info("lease_currently_held", "path", l.path, "owner", existing.Owner)
	return false, nil
}

func (l *fileLease) Release(owner string) error {
	existing, err := l.read()
	if err != nil {
		return err
	}
	if existing.Owner != owner {
		return errNotOwner
	}
	return os.Remove(l.path)
}
