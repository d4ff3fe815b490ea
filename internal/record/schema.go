package record

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ErrInvalidValue is returned when a record does not fit its category
// schema, typically a field holding an object or an array.
var ErrInvalidValue = errors.New("invalid record value")

// Schema checks stored entries against the per-category CUE definitions.
// Every entry needs an id (string, or number for logs written by the web
// app) and a string timestamp; any other key must hold a scalar.
type Schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	defs map[Category]cue.Value
}

// NewSchema compiles the definitions for all categories.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource())
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("record schema: %v", err)
	}
	s := &Schema{ctx: ctx, defs: map[Category]cue.Value{}}
	for _, c := range categoryOrder {
		def := v.LookupPath(cue.ParsePath(definitionName(c)))
		if !def.Exists() {
			return nil, fmt.Errorf("record schema: missing %s", definitionName(c))
		}
		s.defs[c] = def
	}
	return s, nil
}

// Validate checks one raw JSON entry of category c.
func (s *Schema) Validate(c Category, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.defs[c]
	if !ok {
		return fmt.Errorf("unknown category: %q", c)
	}
	data := s.ctx.CompileBytes(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("invalid entry: %s", oneLine(err.Error()))
	}
	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema mismatch: %s", oneLine(err.Error()))
	}
	return nil
}

func definitionName(c Category) string { return "#" + string(c) }

func schemaSource() string {
	var b strings.Builder
	b.WriteString("#scalar: string | number | bool | null\n")
	for _, c := range categoryOrder {
		fmt.Fprintf(&b, "%s: {\n", definitionName(c))
		fmt.Fprintf(&b, "\t%s: string | number\n\t%s: string\n", KeyID, KeyTimestamp)
		for _, k := range []string{KeyDate, KeyEmployeeName, KeyEmployeeNumber, KeyCategory} {
			fmt.Fprintf(&b, "\t%s?: string\n", k)
		}
		for _, f := range categoryTable[c].fields {
			fmt.Fprintf(&b, "\t%s?: #scalar\n", f)
		}
		b.WriteString("\t[string]: #scalar\n}\n")
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
