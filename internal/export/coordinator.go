// Package export reads the category logs and produces downloadable files,
// previews and summaries. It also owns the guarded clear-all operation.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/stage"
	"github.com/flarebyte/shiftlog/internal/store"
)

var (
	// ErrNothingToExport is the non-fatal advisory for empty exports.
	ErrNothingToExport = errors.New("nothing to export")
	// ErrNotConfirmed is returned when clear-all was declined.
	ErrNotConfirmed = errors.New("clear-all not confirmed")
)

// ClearPrompt is shown before every record is deleted.
const ClearPrompt = "האם אתה בטוח שברצונך למחוק את כל הנתונים? פעולה זו לא ניתנת לביטול."

// ClearedMessage confirms a completed clear-all.
const ClearedMessage = "כל הנתונים נמחקו בהצלחה"

// DefaultCombinedName is the file name of the all-categories export.
const DefaultCombinedName = "כל_הנתונים_מעקב_עובדים"

// Advisory texts carried by ErrNothingToExport.
const (
	AdvisoryCategory = "אין נתונים לייצוא עבור קטגוריה זו"
	AdvisoryAll      = "אין נתונים לייצוא"
)

// DefaultPreviewLimit is used when PreviewRecent gets a non-positive limit.
const DefaultPreviewLimit = 10

// Download is a rendered export file.
type Download struct {
	Filename    string        `json:"filename"`
	ContentType string        `json:"contentType"`
	Body        []byte        `json:"-"`
	Records     int           `json:"records"`
	Skipped     []stage.Error `json:"skipped,omitempty"`
}

// Confirmer asks the operator to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// Options tune a Coordinator.
type Options struct {
	Labels       record.Labels
	CombinedName string
	Format       string
	Workers      int
}

// Coordinator drives the export pipelines over a store.
type Coordinator struct {
	store *store.Store
	opts  Options
}

// NewCoordinator returns a Coordinator with defaults filled in.
func NewCoordinator(s *store.Store, opts Options) *Coordinator {
	if opts.CombinedName == "" {
		opts.CombinedName = DefaultCombinedName
	}
	if opts.Format == "" {
		opts.Format = stage.FormatCSV
	}
	return &Coordinator{store: s, opts: opts}
}

// Label returns the display label configured for c.
func (c *Coordinator) Label(cat record.Category) string { return c.opts.Labels.Of(cat) }

func (c *Coordinator) meta(action string) *stage.Meta {
	labels := map[string]string{}
	for k, v := range c.opts.Labels {
		labels[string(k)] = v
	}
	return &stage.Meta{Action: action, Labels: labels, Format: c.opts.Format, Workers: c.opts.Workers}
}

func (c *Coordinator) deps() stage.Deps { return stage.Deps{Logs: c.store} }

// ExportCategory renders one category log. An empty log yields
// ErrNothingToExport and no file.
func (c *Coordinator) ExportCategory(ctx context.Context, cat record.Category) (Download, error) {
	if !cat.Valid() {
		return Download{}, fmt.Errorf("unknown category: %q", cat)
	}
	meta := c.meta(stage.ActionExportCategory)
	meta.Categories = []record.Category{cat}
	meta.Filename = c.Label(cat)
	return c.export(ctx, meta, AdvisoryCategory)
}

// ExportAll renders every log in category order into one file. The empty
// check covers the union of all logs.
func (c *Coordinator) ExportAll(ctx context.Context) (Download, error) {
	meta := c.meta(stage.ActionExportAll)
	meta.Filename = c.opts.CombinedName
	return c.export(ctx, meta, AdvisoryAll)
}

func (c *Coordinator) export(ctx context.Context, meta *stage.Meta, advisory string) (Download, error) {
	stages, err := stage.PreparedActionStages(meta.Action, meta)
	if err != nil {
		return Download{}, err
	}
	out, err := stage.RunSequence(ctx, stages, stage.Envelope{Meta: meta}, c.deps(), func(name string, env stage.Envelope) error {
		if stage.IsSerializeStage(name) && len(env.Records) == 0 {
			return fmt.Errorf("%w: %s", ErrNothingToExport, advisory)
		}
		return nil
	})
	if err != nil {
		return Download{}, err
	}
	if out.Output == nil {
		return Download{}, fmt.Errorf("%s: no output produced", meta.Action)
	}
	log.GetLogger().WithField("file", out.Output.Filename).WithField("records", len(out.Records)).Info("export rendered")
	return Download{
		Filename:    out.Output.Filename,
		ContentType: out.Output.ContentType,
		Body:        out.Output.Body,
		Records:     len(out.Records),
		Skipped:     out.Errors,
	}, nil
}

// ClearAll empties every category log once confirm approves. Declining
// leaves all data untouched and returns ErrNotConfirmed.
func (c *Coordinator) ClearAll(ctx context.Context, confirm Confirmer) error {
	if confirm == nil {
		return ErrNotConfirmed
	}
	ok, err := confirm.Confirm(ctx, ClearPrompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	if err := c.store.ClearAll(); err != nil {
		return err
	}
	log.GetLogger().Info("all logs cleared")
	return nil
}

// PreviewItem is one line of the recent-records preview.
type PreviewItem struct {
	Category     record.Category `json:"category"`
	Label        string          `json:"label"`
	EmployeeName string          `json:"employeeName"`
	Timestamp    string          `json:"timestamp"`
	Record       record.Record   `json:"record"`
}

// PreviewRecent merges all logs newest first and keeps at most limit
// entries. Nothing is written.
func (c *Coordinator) PreviewRecent(ctx context.Context, limit int) ([]PreviewItem, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	meta := c.meta(stage.ActionPreview)
	meta.Limit = limit
	stages, err := stage.PreparedActionStages(stage.ActionPreview, meta)
	if err != nil {
		return nil, err
	}
	out, err := stage.RunSequence(ctx, stages, stage.Envelope{Meta: meta}, c.deps(), nil)
	if err != nil {
		return nil, err
	}
	items := make([]PreviewItem, 0, len(out.Records))
	for _, e := range out.Records {
		items = append(items, PreviewItem{
			Category:     e.Category,
			Label:        c.Label(e.Category),
			EmployeeName: e.Record.String(record.KeyEmployeeName),
			Timestamp:    e.Record.Timestamp(),
			Record:       e.Record,
		})
	}
	return items, nil
}

// CategoryCount is one row of the summary.
type CategoryCount struct {
	Category record.Category `json:"category"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// Summary is the per-category record count.
type Summary struct {
	Categories []CategoryCount `json:"categories"`
	Total      int             `json:"total"`
}

// Summary counts readable records per category.
func (c *Coordinator) Summary() (Summary, error) {
	counts, err := c.store.Counts()
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	for _, cat := range record.Categories() {
		n := counts[cat]
		s.Categories = append(s.Categories, CategoryCount{Category: cat, Label: c.Label(cat), Count: n})
		s.Total += n
	}
	return s, nil
}
