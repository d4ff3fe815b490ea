package stage

import (
	"github.com/flarebyte/shiftlog/internal/record"
)

// Error is an envelope-level problem that did not stop the pipeline.
type Error struct {
	Stage   string `json:"stage"`
	Locator string `json:"locator,omitempty"`
	Message string `json:"message"`
}

// Entry is one record travelling through the pipeline with its category.
type Entry struct {
	Category record.Category `json:"category"`
	Record   record.Record   `json:"record"`
}

// Meta carries the action settings. Field order is stable for JSON.
type Meta struct {
	Stage      string            `json:"stage,omitempty"`
	Action     string            `json:"action,omitempty"`
	Categories []record.Category `json:"categories,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Workers    int               `json:"workers,omitempty"`
	Format     string            `json:"format,omitempty"`
	Filename   string            `json:"filename,omitempty"`
}

// Output is a rendered file produced by a serialize stage.
type Output struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Envelope is the JSON-serializable contract between stages.
type Envelope struct {
	Records []Entry `json:"records"`
	Meta    *Meta   `json:"meta,omitempty"`
	Errors  []Error `json:"errors,omitempty"`
	Output  *Output `json:"output,omitempty"`
}

// Rows returns the bare records in envelope order.
func (e Envelope) Rows() []record.Record {
	out := make([]record.Record, len(e.Records))
	for i, en := range e.Records {
		out[i] = en.Record
	}
	return out
}

func labelsFromMeta(meta *Meta) record.Labels {
	out := record.Labels{}
	if meta == nil {
		return out
	}
	for k, v := range meta.Labels {
		out[record.Category(k)] = v
	}
	return out
}

func categoriesFromMeta(meta *Meta) []record.Category {
	if meta == nil || len(meta.Categories) == 0 {
		return record.Categories()
	}
	return meta.Categories
}
