// Package store keeps the append-only per-category record logs and the
// operator profile in durable key/value storage.
package store

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/flarebyte/shiftlog/internal/kv"
	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/record"
)

// ErrCorruptLog is returned when a stored log is not a JSON array.
var ErrCorruptLog = errors.New("corrupt record log")

var reservedKeys = map[string]bool{
	record.KeyDate:           true,
	record.KeyEmployeeName:   true,
	record.KeyEmployeeNumber: true,
	record.KeyCategory:       true,
	record.KeyTimestamp:      true,
	record.KeyID:             true,
}

// Store owns the record logs.
type Store struct {
	kv     *kv.Store
	schema *record.Schema
	now    func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps a kv store.
func New(backend *kv.Store, opts ...Option) (*Store, error) {
	schema, err := record.NewSchema()
	if err != nil {
		return nil, err
	}
	s := &Store{kv: backend, schema: schema, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Append stamps fields with the profile, a timestamp and an id, and adds
// the record to the end of the category log. Earlier entries are written
// back byte for byte. A record Load would not read back is refused with
// record.ErrInvalidValue.
func (s *Store) Append(cat record.Category, fields []record.Field) (record.Record, error) {
	if !cat.Valid() {
		return record.Record{}, errors.Errorf("unknown category: %q", cat)
	}
	entries, err := s.rawEntries(cat)
	if err != nil {
		return record.Record{}, err
	}
	now := s.now()
	rec := s.build(cat, fields, now, nextID(now, entries))
	b, err := json.Marshal(rec)
	if err != nil {
		return record.Record{}, errors.Wrap(err, "store: encode record")
	}
	if err := s.schema.Validate(cat, b); err != nil {
		return record.Record{}, errors.Wrap(record.ErrInvalidValue, err.Error())
	}
	if err := s.kv.PutRaw(cat.StorageKey(), joinEntries(append(entries, b))); err != nil {
		return record.Record{}, err
	}
	log.GetLogger().WithField("category", cat).WithField("id", rec.ID()).Debug("record appended")
	return rec, nil
}

func (s *Store) build(cat record.Category, fields []record.Field, now time.Time, id string) record.Record {
	profile := s.ReadProfile()
	date := now.UTC().Format("2006-01-02")
	for _, f := range fields {
		switch f.Key {
		case record.KeyDate:
			if v := record.FormatValue(f.Value); v != "" {
				date = v
			}
		case record.KeyEmployeeName:
			if v := record.FormatValue(f.Value); v != "" {
				profile.Name = v
			}
		case record.KeyEmployeeNumber:
			if v := record.FormatValue(f.Value); v != "" {
				profile.Number = v
			}
		}
	}
	rec := record.New(
		record.Field{Key: record.KeyDate, Value: date},
		record.Field{Key: record.KeyEmployeeName, Value: profile.Name},
		record.Field{Key: record.KeyEmployeeNumber, Value: profile.Number},
	)
	for _, f := range fields {
		if reservedKeys[f.Key] || f.Key == "" {
			continue
		}
		rec = rec.With(f.Key, f.Value)
	}
	return rec.
		With(record.KeyCategory, string(cat)).
		With(record.KeyTimestamp, now.UTC().Format(record.TimestampLayout)).
		With(record.KeyID, id)
}

func joinEntries(entries []json.RawMessage) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// nextID is the creation instant in Unix milliseconds, bumped past the last
// id of the log so ids stay unique and increasing.
func nextID(now time.Time, entries []json.RawMessage) string {
	id := now.UnixMilli()
	if len(entries) == 0 {
		return strconv.FormatInt(id, 10)
	}
	var last struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(entries[len(entries)-1], &last); err == nil {
		if prev, err := strconv.ParseInt(record.FormatValue(last.ID), 10, 64); err == nil && prev >= id {
			id = prev + 1
		}
	}
	return strconv.FormatInt(id, 10)
}

func (s *Store) rawEntries(cat record.Category) ([]json.RawMessage, error) {
	b, ok, err := s.kv.GetRaw(cat.StorageKey())
	if err != nil || !ok {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, errors.Wrapf(ErrCorruptLog, "%s: %v", cat.StorageKey(), err)
	}
	return entries, nil
}

// CorruptEntry describes a stored entry that could not be read back.
// Index is -1 when the whole value is unreadable.
type CorruptEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Log is a category log as read from storage.
type Log struct {
	Category record.Category `json:"category"`
	Records  []record.Record `json:"records"`
	Corrupt  []CorruptEntry  `json:"corrupt,omitempty"`
}

// Load reads the category log. Entries that fail to decode or do not match
// the category schema are reported in Corrupt and skipped.
func (s *Store) Load(cat record.Category) (Log, error) {
	out := Log{Category: cat, Records: []record.Record{}}
	if !cat.Valid() {
		return out, errors.Errorf("unknown category: %q", cat)
	}
	entries, err := s.rawEntries(cat)
	if errors.Is(err, ErrCorruptLog) {
		out.Corrupt = append(out.Corrupt, CorruptEntry{Index: -1, Reason: err.Error()})
		log.GetLogger().WithField("category", cat).Warn("stored log is not an array")
		return out, nil
	}
	if err != nil {
		return out, err
	}
	for i, raw := range entries {
		rec, reason := s.decodeEntry(cat, raw)
		if reason != "" {
			out.Corrupt = append(out.Corrupt, CorruptEntry{Index: i, Reason: reason})
			log.GetLogger().WithField("category", cat).WithField("index", i).Warnf("skipping corrupt entry: %s", reason)
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func (s *Store) decodeEntry(cat record.Category, raw json.RawMessage) (record.Record, string) {
	var rec record.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record.Record{}, err.Error()
	}
	if err := s.schema.Validate(cat, raw); err != nil {
		return record.Record{}, err.Error()
	}
	if _, err := rec.Time(); err != nil {
		return record.Record{}, err.Error()
	}
	return rec, ""
}

// ReadAll returns the readable records of the category in append order.
// A log that was never written is empty, not an error.
func (s *Store) ReadAll(cat record.Category) ([]record.Record, error) {
	l, err := s.Load(cat)
	if err != nil {
		return nil, err
	}
	return l.Records, nil
}

// Clear removes the whole category log.
func (s *Store) Clear(cat record.Category) error {
	if !cat.Valid() {
		return errors.Errorf("unknown category: %q", cat)
	}
	if err := s.kv.Delete(cat.StorageKey()); err != nil {
		return err
	}
	log.GetLogger().WithField("category", cat).Info("log cleared")
	return nil
}

// ClearAll removes every category log. The profile is kept.
func (s *Store) ClearAll() error {
	for _, c := range record.Categories() {
		if err := s.Clear(c); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns the number of readable records per category.
func (s *Store) Counts() (map[record.Category]int, error) {
	out := map[record.Category]int{}
	for _, c := range record.Categories() {
		recs, err := s.ReadAll(c)
		if err != nil {
			return nil, err
		}
		out[c] = len(recs)
	}
	return out, nil
}
