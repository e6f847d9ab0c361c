// Package kv provides the persistent key-value storage that collection stores
// write into. Values are opaque strings replaced whole on every write.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ErrUnavailable is returned by a storage that cannot be used in the current
// execution context.
var ErrUnavailable = errors.New("storage unavailable")

// Storage defines the key-value persistence primitive.
type Storage interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value under key. A failed Set leaves the previous value intact.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists all stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the storage.
	Close() error
}

// Timestamped is implemented by storages that record when each key was
// last written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Open creates the storage for driver rooted at path. For the sqlite driver
// path is the database file; for the file driver it is a directory.
func Open(driver, path string) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "":
		return NewSQLiteStorage(path)
	case DriverFile:
		return NewFileStorage(afero.NewOsFs(), path)
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (use sqlite, file or memory)", driver)
	}
}

// DefaultPath returns the default location for driver under base.
func DefaultPath(driver, base string) string {
	if strings.EqualFold(driver, DriverFile) {
		return filepath.Join(base, "data")
	}
	return filepath.Join(base, "openats.db")
}

type unavailable struct{}

// Unavailable returns a storage whose every operation fails with ErrUnavailable.
func Unavailable() Storage { return unavailable{} }

func (unavailable) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}
func (unavailable) Set(context.Context, string, string) error { return ErrUnavailable }
func (unavailable) Remove(context.Context, string) error      { return ErrUnavailable }
func (unavailable) Keys(context.Context) ([]string, error)    { return nil, ErrUnavailable }
func (unavailable) Close() error                              { return nil }
