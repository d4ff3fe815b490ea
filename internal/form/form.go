// Package form decides whether a submitted field set may be stored. Each
// category has a Lua predicate evaluated in a restricted sandbox.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/store"
)

var (
	// ErrMissingEmployee means the operator profile is incomplete.
	ErrMissingEmployee = errors.New("employee name and number are required")
	// ErrRejected means the category predicate returned false.
	ErrRejected = errors.New("form rejected")
)

// Shifts accepted by the injection form.
var Shifts = []string{"08:00", "15:00"}

// Admitter evaluates the per-category predicates.
type Admitter struct {
	predicates map[record.Category]string
	sandbox    Sandbox
}

// New returns an Admitter. Non-empty overrides replace the default
// predicate of their category.
func New(overrides map[record.Category]string, sb Sandbox) *Admitter {
	a := &Admitter{predicates: map[record.Category]string{}, sandbox: sb}
	for _, c := range record.Categories() {
		a.predicates[c] = DefaultPredicate(c)
		if src := strings.TrimSpace(overrides[c]); src != "" {
			a.predicates[c] = src
		}
	}
	return a
}

// Predicate returns the source evaluated for c.
func (a *Admitter) Predicate(c record.Category) string { return a.predicates[c] }

// DefaultPredicate requires every mandatory field of c. Injection also
// restricts the shift to the known start times.
func DefaultPredicate(c record.Category) string {
	parts := make([]string, 0, 8)
	for _, f := range c.Required() {
		parts = append(parts, fmt.Sprintf("filled(%q)", f))
	}
	if c == record.Injection {
		alts := make([]string, 0, len(Shifts))
		for _, s := range Shifts {
			alts = append(alts, fmt.Sprintf("fields.shift == %q", s))
		}
		parts = append(parts, "("+strings.Join(alts, " or ")+")")
	}
	if len(parts) == 0 {
		return "return true"
	}
	return "return " + strings.Join(parts, " and ")
}

// Admit returns nil when fields may be appended for the given profile.
func (a *Admitter) Admit(ctx context.Context, cat record.Category, fields []record.Field, profile store.Profile) error {
	if !cat.Valid() {
		return fmt.Errorf("unknown category: %q", cat)
	}
	if !profileFilled(fields, profile) {
		return ErrMissingEmployee
	}
	code := a.predicates[cat]
	if !containsReturn(code) {
		code = "return (" + code + ")"
	}
	values := map[string]any{}
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	ret, violation, err := a.sandbox.run(ctx, map[string]any{
		"category": string(cat),
		"fields":   values,
		"profile":  map[string]any{"name": profile.Name, "number": profile.Number},
	}, code)
	if err != nil {
		return fmt.Errorf("%s predicate: %w", cat, err)
	}
	if violation != "" {
		return fmt.Errorf("%s predicate: %s", cat, violation)
	}
	if ret.Type() != lua.LTBool {
		return fmt.Errorf("%s predicate: expected boolean result, got %s", cat, ret.Type())
	}
	if !lua.LVAsBool(ret) {
		if missing := missingRequired(cat, values); len(missing) > 0 {
			return fmt.Errorf("%w: %s (missing: %s)", ErrRejected, cat, strings.Join(missing, ", "))
		}
		return fmt.Errorf("%w: %s", ErrRejected, cat)
	}
	return nil
}

func profileFilled(fields []record.Field, p store.Profile) bool {
	name, number := p.Name, p.Number
	for _, f := range fields {
		switch f.Key {
		case record.KeyEmployeeName:
			if v := record.FormatValue(f.Value); v != "" {
				name = v
			}
		case record.KeyEmployeeNumber:
			if v := record.FormatValue(f.Value); v != "" {
				number = v
			}
		}
	}
	return strings.TrimSpace(name) != "" && strings.TrimSpace(number) != ""
}

func missingRequired(cat record.Category, values map[string]any) []string {
	var out []string
	for _, f := range cat.Required() {
		if strings.TrimSpace(record.FormatValue(values[f])) == "" {
			out = append(out, f)
		}
	}
	return out
}

func containsReturn(s string) bool {
	return strings.Contains(s, "return")
}
