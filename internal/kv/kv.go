// Package kv is the device-local durable key/value storage. Each key is one
// file under the store directory; values are opaque bytes (JSON arrays for
// record logs, plain strings for the profile slots).
package kv

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// DefaultMaxValueBytes mirrors the per-origin quota browsers give local storage.
const DefaultMaxValueBytes = 5 << 20

var (
	// ErrQuotaExceeded is returned when a value would not fit the quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidKey is returned for keys outside [A-Za-z0-9_-].
	ErrInvalidKey = errors.New("invalid storage key")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Options tune a Store.
type Options struct {
	MaxValueBytes int
}

// Store is a directory of key files.
type Store struct {
	dir      string
	maxBytes int
}

// Open creates dir when needed and returns a Store rooted there.
func Open(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, errors.New("kv: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "kv: create %s", dir)
	}
	limit := opts.MaxValueBytes
	if limit <= 0 {
		limit = DefaultMaxValueBytes
	}
	return &Store{dir: dir, maxBytes: limit}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// GetRaw returns the stored bytes for key. A missing key is not an error.
func (s *Store) GetRaw(key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "kv: read %s", key)
	}
	return b, true, nil
}

// PutRaw replaces the value for key. The write goes to a temp file that is
// renamed over the old value, so a failed write leaves prior data intact.
func (s *Store) PutRaw(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if len(value) > s.maxBytes {
		return errors.Wrapf(ErrQuotaExceeded, "%s: %d bytes > %d", key, len(value), s.maxBytes)
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "kv: write %s", key)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "kv: write %s", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "kv: sync %s", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "kv: close %s", key)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "kv: commit %s", key)
	}
	return nil
}

// Delete removes key. Removing an absent key succeeds.
func (s *Store) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "kv: delete %s", key)
	}
	return nil
}

// GetString returns the value as a string, "" when absent.
func (s *Store) GetString(key string) (string, error) {
	b, _, err := s.GetRaw(key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PutString stores a plain string value.
func (s *Store) PutString(key, value string) error {
	return s.PutRaw(key, []byte(value))
}

// Keys lists stored keys in lexical order. In-flight temp files are skipped.
func (s *Store) Keys() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.dir), "[!.]*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrap(err, "kv: list keys")
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(m, ".tmp") || !keyPattern.MatchString(m) {
			continue
		}
		keys = append(keys, m)
	}
	sort.Strings(keys)
	return keys, nil
}
