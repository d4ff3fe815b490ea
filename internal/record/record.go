// Package record holds the flat, ordered record type shared by every
// category log and the per-category shape schemas.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Reserved keys stamped on every stored record.
const (
	KeyDate           = "date"
	KeyEmployeeName   = "employeeName"
	KeyEmployeeNumber = "employeeNumber"
	KeyCategory       = "category"
	KeyTimestamp      = "timestamp"
	KeyID             = "id"
)

// TimestampLayout is the millisecond ISO-8601 instant used for timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record is an immutable flat mapping whose keys keep insertion order.
// The zero value is an empty record.
type Record struct {
	keys []string
	vals map[string]any
}

// Field is one key/value pair used to build records.
type Field struct {
	Key   string
	Value any
}

// New builds a record from pairs. A repeated key keeps its first position
// and its last value.
func New(fields ...Field) Record {
	r := Record{}
	for _, f := range fields {
		r = r.with(f.Key, f.Value)
	}
	return r
}

// With returns a copy of r with key set to v. Existing keys keep their position.
func (r Record) With(key string, v any) Record {
	return r.clone().with(key, v)
}

func (r Record) with(key string, v any) Record {
	if r.vals == nil {
		r.vals = map[string]any{}
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
	return r
}

func (r Record) clone() Record {
	out := Record{keys: make([]string, len(r.keys)), vals: make(map[string]any, len(r.vals))}
	copy(out.keys, r.keys)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// Len is the number of keys.
func (r Record) Len() int { return len(r.keys) }

// Keys returns the keys in order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the raw value for key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// String returns the value for key formatted as a cell; "" when absent.
func (r Record) String(key string) string {
	v, ok := r.vals[key]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

func (r Record) ID() string        { return r.String(KeyID) }
func (r Record) Timestamp() string { return r.String(KeyTimestamp) }
func (r Record) Category() string  { return r.String(KeyCategory) }

// Time parses the timestamp. Records written elsewhere may carry any
// RFC 3339 variant, so both layouts are tried.
func (r Record) Time() (time.Time, error) {
	ts := r.Timestamp()
	if t, err := time.Parse(TimestampLayout, ts); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", ts)
	}
	return t, nil
}

// FormatValue stringifies a cell value: nil is empty, numbers use their
// shortest decimal form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// MarshalJSON writes the fields in key order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its key order. Numbers are
// kept as json.Number so they format exactly as stored.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}
	out := Record{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("record: invalid key %v", kt)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("record: field %s: %w", key, err)
		}
		out = out.with(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
