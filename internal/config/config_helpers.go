package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}

// lookup returns the value at path and whether it is present.
func lookup(v cue.Value, path string) (cue.Value, bool) {
	f := v.LookupPath(cue.ParsePath(path))
	return f, f.Exists()
}

func optionalString(v cue.Value, path string, dst *string) error {
	f, ok := lookup(v, path)
	if !ok {
		return nil
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", path)
	}
	return f.Decode(dst)
}

func optionalInt(v cue.Value, path string, dst *int) error {
	f, ok := lookup(v, path)
	if !ok {
		return nil
	}
	if f.Kind() != cue.IntKind {
		return fmt.Errorf("invalid type for field: %s (expected int)", path)
	}
	return f.Decode(dst)
}

func optionalBool(v cue.Value, path string, dst *bool) error {
	f, ok := lookup(v, path)
	if !ok {
		return nil
	}
	if f.Kind() != cue.BoolKind {
		return fmt.Errorf("invalid type for field: %s (expected bool)", path)
	}
	return f.Decode(dst)
}

func optionalStrings(v cue.Value, path string, dst *[]string) error {
	f, ok := lookup(v, path)
	if !ok {
		return nil
	}
	if f.Kind() != cue.ListKind {
		return fmt.Errorf("invalid type for field: %s (expected list of strings)", path)
	}
	var out []string
	if err := f.Decode(&out); err != nil {
		return fmt.Errorf("invalid value for %s: %v", path, err)
	}
	*dst = out
	return nil
}

// firstErr runs each step until one fails.
func firstErr(steps ...error) error {
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	return nil
}
