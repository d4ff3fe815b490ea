package serialize

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/flarebyte/shiftlog/internal/record"
)

const maxSheetName = 31

// XLSX renders rows into a single-sheet workbook using the CSV column rule.
// The sheet is laid out right to left.
func XLSX(sheet string, rows []record.Record) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := sheetName(sheet)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	rtl := true
	if err := f.SetSheetView(name, -1, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, err
	}
	header := Header(rows)
	if err := setRow(f, name, 1, header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cells := make([]string, len(header))
		for j, k := range header {
			cells[j] = r.String(k)
		}
		if err := setRow(f, name, i+2, cells); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "records"
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}
