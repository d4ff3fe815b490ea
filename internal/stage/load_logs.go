package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/store"
)

const loadLogsStage = "load-logs"

type loadResult struct {
	log store.Log
	err error
}

// loadLogsRunner reads the selected category logs concurrently and appends
// their records in category order. Corrupt entries become envelope errors.
func loadLogsRunner(ctx context.Context, in Envelope, deps Deps) (Envelope, error) {
	if deps.Logs == nil {
		return Envelope{}, errors.New("load-logs: no log reader")
	}
	cats := categoriesFromMeta(in.Meta)
	for _, c := range cats {
		if !c.Valid() {
			return Envelope{}, fmt.Errorf("load-logs: unknown category: %q", c)
		}
	}
	results := runIndexedParallel(len(cats), getWorkers(in.Meta), func(i int) loadResult {
		if err := ctx.Err(); err != nil {
			return loadResult{err: err}
		}
		l, err := deps.Logs.Load(cats[i])
		return loadResult{log: l, err: err}
	})

	out := in
	out.Records = append([]Entry(nil), in.Records...)
	var envErrs []Error
	for i, res := range results {
		if res.err != nil {
			return Envelope{}, fmt.Errorf("load-logs: %s: %w", cats[i], res.err)
		}
		for _, r := range res.log.Records {
			out.Records = append(out.Records, Entry{Category: cats[i], Record: r})
		}
		for _, c := range res.log.Corrupt {
			envErrs = append(envErrs, Error{Stage: loadLogsStage, Locator: corruptLocator(cats[i], c.Index), Message: c.Reason})
		}
	}
	appendSanitizedErrors(&out, envErrs)
	return out, nil
}

func corruptLocator(c record.Category, idx int) string {
	if idx < 0 {
		return c.StorageKey()
	}
	return fmt.Sprintf("%s#%d", c.StorageKey(), idx)
}

func init() { Register(loadLogsStage, loadLogsRunner) }
