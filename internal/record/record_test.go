package record

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecord_JSONKeepsKeyOrder(t *testing.T) {
	in := `{"date":"2024-05-01","employeeName":"דנה","machine":"M1","quantity":50,"notes":null,"id":"1"}`
	var r Record
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"date", "employeeName", "machine", "quantity", "notes", "id"}
	if !reflect.DeepEqual(r.Keys(), want) {
		t.Fatalf("keys: %v", r.Keys())
	}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("round trip changed bytes\nwant: %s\n got: %s", in, out)
	}
	if r.String("quantity") != "50" || r.String("notes") != "" {
		t.Fatalf("unexpected cells: %q %q", r.String("quantity"), r.String("notes"))
	}
}

func TestRecord_WithIsCopy(t *testing.T) {
	a := New(Field{"a", "1"}, Field{"b", "2"})
	b := a.With("a", "x").With("c", "3")
	if a.String("a") != "1" || a.Len() != 2 {
		t.Fatalf("original mutated: %v", a.Keys())
	}
	if !reflect.DeepEqual(b.Keys(), []string{"a", "b", "c"}) || b.String("a") != "x" {
		t.Fatalf("unexpected copy: %v", b.Keys())
	}
}

func TestRecord_UnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`["a"]`), &r); err == nil {
		t.Fatalf("expected error for array")
	}
}

func TestRecord_Time(t *testing.T) {
	r := New(Field{KeyTimestamp, "2024-05-01T08:30:00.123Z"})
	tm, err := r.Time()
	if err != nil {
		t.Fatalf("time: %v", err)
	}
	if tm.UnixMilli() != 1714552200123 {
		t.Fatalf("unexpected instant: %d", tm.UnixMilli())
	}
	if _, err := New(Field{KeyTimestamp, "yesterday"}).Time(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFormatValue(t *testing.T) {
	cases := map[string]any{
		"":     nil,
		"2.5":  2.5,
		"3":    float64(3),
		"42":   json.Number("42"),
		"true": true,
		"abc":  "abc",
	}
	for want, in := range cases {
		if got := FormatValue(in); got != want {
			t.Fatalf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"coloring", "coloringData", "צבע"} {
		c, err := Parse(in)
		if err != nil || c != Coloring {
			t.Fatalf("Parse(%q) = %q, %v", in, c, err)
		}
	}
	if _, err := Parse("painting"); err == nil {
		t.Fatalf("expected unknown category error")
	}
	if got := (Labels{Filling: "Filling"}).Of(Injection); got != "הזרקות" {
		t.Fatalf("label fallback: %q", got)
	}
}

func TestSchema_Validate(t *testing.T) {
	s, err := NewSchema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	good := []string{
		`{"employeeName":"a","shift":"08:00","hoursRemaining":2,"extra":"x","timestamp":"2024-05-01T08:30:00.000Z","id":"1"}`,
		`{"date":"2024-05-01","machine":"M1","timestamp":"2024-05-01T08:30:00.000Z","id":1714552200123}`,
	}
	for _, g := range good {
		if err := s.Validate(Injection, []byte(g)); err != nil {
			t.Fatalf("unexpected error for %s: %v", g, err)
		}
	}
	bad := []string{
		`{"timestamp":"2024-05-01T08:30:00.000Z"}`,
		`{"id":true,"timestamp":"2024-05-01T08:30:00.000Z"}`,
		`{"id":"1","timestamp":"t","machine":{"nested":true}}`,
		`{"id":"1","timestamp":"t","employeeName":7}`,
	}
	for _, b := range bad {
		if err := s.Validate(Injection, []byte(b)); err == nil {
			t.Fatalf("expected schema error for %s", b)
		}
	}
}
