// Package serialize turns record sequences into spreadsheet-importable
// files.
package serialize

import (
	"errors"
	"strings"

	"github.com/flarebyte/shiftlog/internal/record"
)

// BOM is prefixed to CSV output so spreadsheet tools pick UTF-8.
const BOM = "\uFEFF"

// ErrEmpty is returned for an empty record sequence.
var ErrEmpty = errors.New("nothing to serialize")

// Header is the key list of the first row without the id key.
func Header(rows []record.Record) []string {
	if len(rows) == 0 {
		return nil
	}
	keys := rows[0].Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == record.KeyID {
			continue
		}
		out = append(out, k)
	}
	return out
}

// CSV renders rows as comma-separated text. Columns come from the first
// row; a later row missing a column gets an empty cell. Lines are joined
// with "\n".
func CSV(rows []record.Record) (string, error) {
	if len(rows) == 0 {
		return "", ErrEmpty
	}
	header := Header(rows)
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, joinCells(header))
	for _, r := range rows {
		cells := make([]string, len(header))
		for i, k := range header {
			cells[i] = r.String(k)
		}
		lines = append(lines, joinCells(cells))
	}
	return BOM + strings.Join(lines, "\n"), nil
}

func joinCells(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = quoteCell(c)
	}
	return strings.Join(quoted, ",")
}

// quoteCell wraps values holding a comma, quote or line break and doubles
// inner quotes. Everything else is written as is.
func quoteCell(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
