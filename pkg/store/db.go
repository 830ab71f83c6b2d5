package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

var ErrClosed = errors.New("store: closed")

type Options struct {
	// DisableWAL trades durability for write speed. Writes then never fsync.
	DisableWAL bool
	// Sync fsyncs every write when the WAL is enabled.
	Sync bool
}

// DB is a small string-keyed wrapper around a pebble database.
type DB struct {
	mu   sync.RWMutex
	pdb  *pebble.DB
	path string
	opts Options
}

// Open opens or creates the pebble database at path.
func Open(path string, opts Options) (*DB, error) {
	return open(path, opts, &pebble.Options{DisableWAL: opts.DisableWAL})
}

// OpenMemory opens a database backed by an in-memory filesystem.
func OpenMemory() (*DB, error) {
	return open("", Options{}, &pebble.Options{FS: vfs.NewMem()})
}

func open(path string, opts Options, popts *pebble.Options) (*DB, error) {
	if opts.DisableWAL {
		logger.Warn("durability_disabled", "path", path)
	}
	pdb, err := pebble.Open(path, popts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open pebble at %q: %w", path, err)
	}
	return &DB{pdb: pdb, path: path, opts: opts}, nil
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (d *DB) Path() string { return d.path }

// writeOpt never asks for fsync when the WAL is off.
func (d *DB) writeOpt() *pebble.WriteOptions {
	if d.opts.Sync && !d.opts.DisableWAL {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Get returns a copy of the value stored under key.
func (d *DB) Get(key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pdb == nil {
		return nil, ErrClosed
	}
	v, closer, err := d.pdb.Get([]byte(key))
	if err != nil {
		if !IsNotFound(err) {
			logger.Error("get_key_failed", "key", key, "error", err)
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (d *DB) Set(key string, value []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pdb == nil {
		return ErrClosed
	}
	if err := d.pdb.Set([]byte(key), value, d.writeOpt()); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("save_key_ok", "key", key, "len", len(value))
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (d *DB) Delete(key string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pdb == nil {
		return ErrClosed
	}
	if err := d.pdb.Delete([]byte(key), d.writeOpt()); err != nil {
		logger.Error("delete_key_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// ListKeys returns every key starting with prefix, in order. An empty prefix
// lists everything.
func (d *DB) ListKeys(prefix string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pdb == nil {
		return nil, ErrClosed
	}
	iter, err := d.pdb.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	pfx := []byte(prefix)
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(iter.Key()))
	}
	return out, iter.Error()
}

// Close flushes and closes the database. Closing twice is a no-op.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pdb == nil {
		return nil
	}
	err := d.pdb.Close()
	d.pdb = nil
	return err
}
