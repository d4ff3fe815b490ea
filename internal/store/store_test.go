package store

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/flarebyte/shiftlog/internal/kv"
	"github.com/flarebyte/shiftlog/internal/record"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	backend, err := kv.Open(t.TempDir(), kv.Options{})
	if err != nil {
		t.Fatalf("kv: %v", err)
	}
	s, err := New(backend, WithClock(clock.now))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return s
}

func injectionFields() []record.Field {
	return []record.Field{
		{Key: "shift", Value: "08:00"},
		{Key: "machine", Value: "M1"},
		{Key: "machineType", Value: "TypeA"},
		{Key: "location", Value: "Hall1"},
		{Key: "productionOrder", Value: "PO-9"},
		{Key: "hoursRemaining", Value: "2"},
		{Key: "quantityRemaining", Value: "50"},
		{Key: "notes", Value: ""},
	}
}

func TestAppend_InjectionWithProfile(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 30, 0, 123e6, time.UTC)}
	s := newTestStore(t, clock)
	if err := s.WriteProfile(Profile{Name: "דנה", Number: "007"}); err != nil {
		t.Fatalf("profile: %v", err)
	}
	rec, err := s.Append(record.Injection, injectionFields())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	wantKeys := []string{"date", "employeeName", "employeeNumber", "shift", "machine", "machineType",
		"location", "productionOrder", "hoursRemaining", "quantityRemaining", "notes", "category", "timestamp", "id"}
	if !reflect.DeepEqual(rec.Keys(), wantKeys) {
		t.Fatalf("keys: %v", rec.Keys())
	}
	if rec.String("employeeName") != "דנה" || rec.String("employeeNumber") != "007" {
		t.Fatalf("profile not embedded: %v", rec.Keys())
	}
	if rec.ID() != "1714552200123" || rec.Timestamp() != "2024-05-01T08:30:00.123Z" {
		t.Fatalf("identity: id=%s ts=%s", rec.ID(), rec.Timestamp())
	}
	if rec.String("date") != "2024-05-01" || rec.Category() != "injection" {
		t.Fatalf("stamps: %v", rec.Keys())
	}

	all, err := s.ReadAll(record.Injection)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one record, got %d", len(all))
	}
	a, _ := json.Marshal(all[0])
	b, _ := json.Marshal(rec)
	if string(a) != string(b) {
		t.Fatalf("stored record differs\nwant: %s\n got: %s", b, a)
	}
}

func TestAppend_OrderAndUniqueIDs(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clock)
	var want []string
	for i := 0; i < 5; i++ {
		rec, err := s.Append(record.Filling, []record.Field{{Key: "batchNumber", Value: string(rune('a' + i))}})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		want = append(want, rec.ID())
		if i == 2 {
			clock.t = clock.t.Add(time.Second)
		}
	}
	all, err := s.ReadAll(record.Filling)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	seen := map[string]bool{}
	for i, r := range all {
		if r.ID() != want[i] {
			t.Fatalf("order changed at %d: %s != %s", i, r.ID(), want[i])
		}
		if r.String("batchNumber") != string(rune('a'+i)) {
			t.Fatalf("unexpected payload at %d", i)
		}
		if seen[r.ID()] {
			t.Fatalf("duplicate id %s", r.ID())
		}
		seen[r.ID()] = true
	}
	if want[1] != "1714550400001" {
		t.Fatalf("expected bumped id, got %s", want[1])
	}
}

func TestAppend_FieldsOverrideProfileAndReservedKeysIgnored(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	s := newTestStore(t, clock)
	_ = s.WriteProfile(Profile{Name: "a", Number: "1"})
	rec, err := s.Append(record.Coloring, []record.Field{
		{Key: "employeeName", Value: "b"},
		{Key: "date", Value: "2024-04-30"},
		{Key: "id", Value: "forged"},
		{Key: "itemCode", Value: "X"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if rec.String("employeeName") != "b" || rec.String("employeeNumber") != "1" {
		t.Fatalf("profile merge: %v", rec.Keys())
	}
	if rec.String("date") != "2024-04-30" || rec.ID() == "forged" {
		t.Fatalf("reserved keys: %v", rec.Keys())
	}
}

func TestClear_OnlyTouchesOneCategory(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)
	for _, c := range record.Categories() {
		if _, err := s.Append(c, nil); err != nil {
			t.Fatalf("append %s: %v", c, err)
		}
	}
	if err := s.Clear(record.Assembly); err != nil {
		t.Fatalf("clear: %v", err)
	}
	counts, err := s.Counts()
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := map[record.Category]int{record.Injection: 1, record.Assembly: 0, record.Coloring: 1, record.Filling: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("counts: %v", counts)
	}
	if err := s.ClearAll(); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	for _, c := range record.Categories() {
		recs, err := s.ReadAll(c)
		if err != nil || len(recs) != 0 {
			t.Fatalf("%s not empty: %d %v", c, len(recs), err)
		}
	}
}

func TestLoad_ReportsCorruptEntries(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)
	raw := `[{"id":"1","timestamp":"2024-05-01T08:00:00.000Z","machine":"M1"},` +
		`"junk",` +
		`{"machine":"M2"},` +
		`{"id":"3","timestamp":"2024-05-01T09:00:00.000Z","machine":"M3"}]`
	if err := s.kv.PutRaw(record.Injection.StorageKey(), []byte(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l, err := s.Load(record.Injection)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Records) != 2 || l.Records[1].ID() != "3" {
		t.Fatalf("unexpected records: %d", len(l.Records))
	}
	if len(l.Corrupt) != 2 || l.Corrupt[0].Index != 1 || l.Corrupt[1].Index != 2 {
		t.Fatalf("unexpected corrupt entries: %+v", l.Corrupt)
	}
}

func TestNonArrayLog(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)
	if err := s.kv.PutRaw(record.Filling.StorageKey(), []byte(`{"oops":true}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l, err := s.Load(record.Filling)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Records) != 0 || len(l.Corrupt) != 1 || l.Corrupt[0].Index != -1 {
		t.Fatalf("unexpected log: %+v", l)
	}
	_, err = s.Append(record.Filling, nil)
	if !errors.Is(err, ErrCorruptLog) {
		t.Fatalf("expected ErrCorruptLog, got %v", err)
	}
	b, _, _ := s.kv.GetRaw(record.Filling.StorageKey())
	if string(b) != `{"oops":true}` {
		t.Fatalf("corrupt log overwritten: %s", b)
	}
}

func TestAppend_QuotaKeepsPriorLog(t *testing.T) {
	backend, err := kv.Open(t.TempDir(), kv.Options{MaxValueBytes: 400})
	if err != nil {
		t.Fatalf("kv: %v", err)
	}
	s, err := New(backend)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := s.Append(record.Injection, nil); err != nil {
		t.Fatalf("first append: %v", err)
	}
	before, _, _ := backend.GetRaw(record.Injection.StorageKey())
	_, err = s.Append(record.Injection, []record.Field{{Key: "notes", Value: string(make([]byte, 500))}})
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	after, _, _ := backend.GetRaw(record.Injection.StorageKey())
	if string(before) != string(after) {
		t.Fatalf("prior log changed")
	}
}

func TestAppend_RejectsNonScalarValues(t *testing.T) {
	s := newTestStore(t, &fakeClock{t: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)})
	if _, err := s.Append(record.Injection, injectionFields()); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, _, _ := s.kv.GetRaw(record.Injection.StorageKey())
	for _, v := range []any{map[string]any{"x": 1}, []any{"a", "b"}} {
		fields := append(injectionFields(), record.Field{Key: "extra", Value: v})
		if _, err := s.Append(record.Injection, fields); !errors.Is(err, record.ErrInvalidValue) {
			t.Fatalf("value %v: expected ErrInvalidValue, got %v", v, err)
		}
	}
	after, _, _ := s.kv.GetRaw(record.Injection.StorageKey())
	if string(before) != string(after) {
		t.Fatalf("rejected append changed the log")
	}
	l, err := s.Load(record.Injection)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Records) != 1 || len(l.Corrupt) != 0 {
		t.Fatalf("unexpected log: %d records, corrupt %+v", len(l.Records), l.Corrupt)
	}
}

func TestLoad_AcceptsNumericIDs(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)}
	s := newTestStore(t, clock)
	raw := `[{"date":"2024-05-01","machine":"M1","timestamp":"2024-05-01T08:00:00.000Z","id":1714550400000}]`
	if err := s.kv.PutRaw(record.Injection.StorageKey(), []byte(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	recs, err := s.ReadAll(record.Injection)
	if err != nil || len(recs) != 1 || recs[0].ID() != "1714550400000" {
		t.Fatalf("numeric id not read: %v %v", recs, err)
	}
	clock.t = time.UnixMilli(1714550400000).UTC()
	rec, err := s.Append(record.Injection, injectionFields())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if rec.ID() != "1714550400001" {
		t.Fatalf("id not bumped past numeric id: %s", rec.ID())
	}
}

func TestProfile_DefaultsEmpty(t *testing.T) {
	s := newTestStore(t, &fakeClock{t: time.Now()})
	if p := s.ReadProfile(); p != (Profile{}) || p.Complete() {
		t.Fatalf("expected empty profile, got %+v", p)
	}
	_ = s.WriteProfile(Profile{Name: "x", Number: "9"})
	_ = s.WriteProfile(Profile{Name: "y", Number: "8"})
	if p := s.ReadProfile(); p != (Profile{Name: "y", Number: "8"}) {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
