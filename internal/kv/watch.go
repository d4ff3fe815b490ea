package kv

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/flarebyte/shiftlog/internal/log"
)

// Op is the kind of change observed on a key.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Change is one observed key mutation.
type Change struct {
	Key string `json:"key"`
	Op  Op     `json:"op"`
}

// Watch streams key changes until ctx is done. Temp files written by PutRaw
// are ignored; the rename that commits them shows up as a put.
func (s *Store) Watch(ctx context.Context) (<-chan Change, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "kv: watch")
	}
	if err := fsw.Add(s.dir); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrapf(err, "kv: watch %s", s.dir)
	}
	out := make(chan Change, 64)
	go func() {
		defer fsw.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				ch, ok := changeFromEvent(ev)
				if !ok {
					continue
				}
				select {
				case out <- ch:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.GetLogger().WithError(err).Warn("kv watch error")
			}
		}
	}()
	return out, nil
}

func changeFromEvent(ev fsnotify.Event) (Change, bool) {
	key := filepath.Base(ev.Name)
	if strings.HasPrefix(key, ".") || !keyPattern.MatchString(key) {
		return Change{}, false
	}
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		return Change{Key: key, Op: OpPut}, true
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return Change{Key: key, Op: OpDelete}, true
	}
	return Change{}, false
}
