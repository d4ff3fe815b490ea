package stage

import (
	"context"
	"sort"
	"time"
)

// sortRecentRunner orders entries newest first by timestamp. Ties keep
// their input order.
func sortRecentRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	out := in
	out.Records = append([]Entry(nil), in.Records...)
	keys := make([]time.Time, len(out.Records))
	for i, e := range out.Records {
		keys[i], _ = e.Record.Time()
	}
	idx := make([]int, len(out.Records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].After(keys[idx[b]])
	})
	sorted := make([]Entry, len(idx))
	for i, j := range idx {
		sorted[i] = out.Records[j]
	}
	out.Records = sorted
	return out, nil
}

// limitRecordsRunner truncates to meta.limit when it is positive.
func limitRecordsRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	out := in
	if in.Meta != nil && in.Meta.Limit > 0 && len(in.Records) > in.Meta.Limit {
		out.Records = append([]Entry(nil), in.Records[:in.Meta.Limit]...)
	}
	return out, nil
}

func init() {
	Register("sort-recent", sortRecentRunner)
	Register("limit-records", limitRecordsRunner)
}
