package stage

import (
	"context"
	"sort"

	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/store"
)

// LogReader loads a category log.
type LogReader interface {
	Load(cat record.Category) (store.Log, error)
}

// Deps are the collaborators a stage may use.
type Deps struct {
	Logs LogReader
}

// Runner executes a stage.
type Runner func(ctx context.Context, in Envelope, deps Deps) (Envelope, error)

var registry = map[string]Runner{}

// Register adds a stage runner.
func Register(name string, r Runner) {
	registry[name] = r
}

// Names lists registered stages.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run executes a registered stage by name.
func Run(ctx context.Context, name string, in Envelope, deps Deps) (Envelope, error) {
	r, ok := registry[name]
	if !ok {
		return Envelope{}, ErrUnknown{name: name}
	}
	if err := ctx.Err(); err != nil {
		return Envelope{}, err
	}
	out, err := r(ctx, in, deps)
	if err != nil {
		return Envelope{}, err
	}
	m := Meta{}
	if out.Meta != nil {
		m = *out.Meta
	}
	m.Stage = name
	out.Meta = &m
	return out, nil
}

// ErrUnknown is returned when a stage is not found.
type ErrUnknown struct{ name string }

func (e ErrUnknown) Error() string { return "unknown stage: " + e.name }
