package stage

import (
	"context"
	"fmt"
	"strings"
)

// Prepared actions.
const (
	ActionExportCategory = "export-category"
	ActionExportAll      = "export-all"
	ActionPreview        = "preview"
)

// PreparedActionStages lists the stages run for action.
func PreparedActionStages(action string, meta *Meta) ([]string, error) {
	switch action {
	case ActionExportCategory, ActionExportAll:
		format := FormatCSV
		if meta != nil && meta.Format != "" {
			format = meta.Format
		}
		if format != FormatCSV && format != FormatXLSX {
			return nil, fmt.Errorf("unsupported export format: %s", format)
		}
		return []string{loadLogsStage, "tag-category", "serialize-" + format}, nil
	case ActionPreview:
		return []string{loadLogsStage, "tag-category", "sort-recent", "limit-records"}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}

// IsSerializeStage reports whether name renders an output file.
func IsSerializeStage(name string) bool {
	return strings.HasPrefix(name, "serialize-")
}

// RunSequence runs stages in order. before, when set, is called ahead of
// each stage and may stop the sequence by returning an error.
func RunSequence(ctx context.Context, stages []string, in Envelope, deps Deps, before func(name string, env Envelope) error) (Envelope, error) {
	out := in
	for _, name := range stages {
		if before != nil {
			if err := before(name, out); err != nil {
				return out, err
			}
		}
		next, err := Run(ctx, name, out, deps)
		if err != nil {
			return Envelope{}, err
		}
		out = next
	}
	return out, nil
}
