// Package kv provides the host key/value storage sitestore persists into:
// a bbolt file, a SQLite file shared between processes, or memory.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// Sentinel errors returned by backends.
var (
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
	ErrClosed        = errors.New("kv: backend closed")
)

// Backend is a flat string key/value store.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any existing value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// ForEach calls fn for every stored pair. Returning an error stops the walk.
	ForEach(fn func(key, value string) error) error
	// Close releases resources.
	Close() error
}

// Watcher delivers keys changed by other processes sharing the same storage.
type Watcher interface {
	// Watch blocks until ctx is done, calling fn for every externally changed key.
	Watch(ctx context.Context, fn func(key string)) error
}

// Backend kinds accepted by Open.
const (
	KindBolt   = "bbolt"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Open creates a backend of the given kind with its files under dir.
//
//	"bbolt"  - bbolt database at dir/sitestore.db (default)
//	"sqlite" - SQLite database at dir/sitestore.sqlite, supports Watch
//	"memory" - in-memory, for tests and dry runs
func Open(kind, dir string) (Backend, error) {
	switch kind {
	case KindBolt, "":
		return OpenBolt(filepath.Join(dir, "sitestore.db"))
	case KindSQLite:
		return OpenSQLite(filepath.Join(dir, "sitestore.sqlite"))
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q (supported: bbolt, sqlite, memory)", kind)
	}
}

// AsWatcher returns the Watcher behind b, looking through wrappers.
func AsWatcher(b Backend) (Watcher, bool) {
	for b != nil {
		if w, ok := b.(Watcher); ok {
			return w, true
		}
		u, ok := b.(interface{ Unwrap() Backend })
		if !ok {
			return nil, false
		}
		b = u.Unwrap()
	}
	return nil, false
}

// CodeUnits counts UTF-16 code units in s, the unit host storage quotas are
// expressed in.
func CodeUnits(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Footprint estimates the stored size of one pair in bytes.
func Footprint(key, value string, bytesPerChar int) int64 {
	return int64(CodeUnits(key)+CodeUnits(value)) * int64(bytesPerChar)
}
