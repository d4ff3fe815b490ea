package record

import (
	"fmt"
	"strings"
)

// Category identifies one form kind and its log.
type Category string

const (
	Injection Category = "injection"
	Assembly  Category = "assembly"
	Coloring  Category = "coloring"
	Filling   Category = "filling"
)

type categoryInfo struct {
	storageKey string
	label      string
	fields     []string
	required   []string
}

var categoryTable = map[Category]categoryInfo{
	Injection: {
		storageKey: "injectionsData",
		label:      "הזרקות",
		fields:     []string{"shift", "machine", "machineType", "location", "productionOrder", "hoursRemaining", "quantityRemaining", "notes"},
		required:   []string{"shift", "machine", "machineType", "location", "productionOrder"},
	},
	Assembly: {
		storageKey: "assembliesData",
		label:      "הרכבות",
		fields:     []string{"shift", "station", "itemCode", "productionOrder", "quantity", "notes"},
		required:   []string{"shift", "station", "itemCode", "productionOrder", "quantity"},
	},
	Coloring: {
		storageKey: "coloringData",
		label:      "צבע",
		fields:     []string{"itemCode", "productionOrder", "startTime", "endTime", "quantity", "actionPerformed1", "actionPerformed2", "signature", "notes"},
		required:   []string{"itemCode", "productionOrder", "startTime", "endTime", "quantity"},
	},
	Filling: {
		storageKey: "fillingData",
		label:      "מילוי",
		fields:     []string{"itemCode", "productionOrder", "batchNumber", "startTime", "endTime", "quantity", "notes"},
		required:   []string{"itemCode", "productionOrder", "batchNumber", "quantity"},
	},
}

var categoryOrder = []Category{Injection, Assembly, Coloring, Filling}

// Categories returns every category in export order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Parse accepts a category id, its storage key or its default label.
func Parse(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categoryOrder {
		info := categoryTable[c]
		if s == string(c) || s == info.storageKey || s == info.label {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// StorageKey is the durable key holding the category log.
func (c Category) StorageKey() string { return categoryTable[c].storageKey }

// Label is the default display label.
func (c Category) Label() string { return categoryTable[c].label }

// Fields lists the form fields of the category in form order.
func (c Category) Fields() []string {
	return append([]string(nil), categoryTable[c].fields...)
}

// Required lists the fields a form must fill before submitting.
func (c Category) Required() []string {
	return append([]string(nil), categoryTable[c].required...)
}

// Labels maps categories to display labels. Missing entries fall back to
// the default label.
type Labels map[Category]string

// Of returns the label for c.
func (l Labels) Of(c Category) string {
	if v, ok := l[c]; ok && v != "" {
		return v
	}
	return c.Label()
}
