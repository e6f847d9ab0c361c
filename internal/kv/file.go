package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

const (
	valueExt = ".json"
	tmpExt   = ".tmp"
)

// ErrWatchUnsupported is returned by Watch when the storage is not backed by
// the operating system filesystem.
var ErrWatchUnsupported = errors.New("watch requires an OS-backed filesystem")

// FileStorage keeps one file per key inside a directory. Writes go to a
// temporary file that is renamed over the target.
type FileStorage struct {
	fs  afero.Fs
	dir string
}

// Change describes a key replaced or removed by some writer.
type Change struct {
	Key     string `json:"key"`
	Removed bool   `json:"removed,omitempty"`
}

// NewFileStorage creates dir on fsys if needed and returns a storage rooted there.
func NewFileStorage(fsys afero.Fs, dir string) (*FileStorage, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileStorage{fs: fsys, dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStorage) Dir() string { return s.dir }

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+valueExt)
}

func keyFromName(name string) (string, bool) {
	if !strings.HasSuffix(name, valueExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, valueExt))
	if err != nil {
		return "", false
	}
	return key, true
}

func (s *FileStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	b, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(b), true, nil
}

// UpdatedAt reports the modification time of key's file.
func (s *FileStorage) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	fi, err := s.fs.Stat(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stat %s: %w", key, err)
	}
	return fi.ModTime(), true, nil
}

func (s *FileStorage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	tmp := target + tmpExt
	defer func() { _ = s.fs.Remove(tmp) }()

	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write temporary file for %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var keys []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if key, ok := keyFromName(info.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStorage) Close() error { return nil }

// Watch calls fn for every key another writer replaces or removes until ctx
// is done. Writes made through this process are reported too.
func (s *FileStorage) Watch(ctx context.Context, fn func(Change)) error {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return ErrWatchUnsupported
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if c, ok := changeFromEvent(event); ok {
				fn(c)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func changeFromEvent(event fsnotify.Event) (Change, bool) {
	key, ok := keyFromName(filepath.Base(event.Name))
	if !ok {
		return Change{}, false
	}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		return Change{Key: key}, true
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename away from the value file means it no longer exists there.
		if _, err := os.Stat(event.Name); errors.Is(err, fs.ErrNotExist) {
			return Change{Key: key, Removed: true}, true
		}
		return Change{Key: key}, true
	}
	return Change{}, false
}
