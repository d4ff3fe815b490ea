package stage

import (
	"context"

	"github.com/flarebyte/shiftlog/internal/record"
)

// tagCategoryRunner writes the display label of each entry's category into
// its category field. Records that lack the field get it appended last.
func tagCategoryRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	labels := labelsFromMeta(in.Meta)
	out := in
	out.Records = make([]Entry, len(in.Records))
	for i, e := range in.Records {
		out.Records[i] = Entry{Category: e.Category, Record: e.Record.With(record.KeyCategory, labels.Of(e.Category))}
	}
	return out, nil
}

func init() { Register("tag-category", tagCategoryRunner) }
