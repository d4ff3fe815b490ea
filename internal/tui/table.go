package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flarebyte/shiftlog/internal/export"
)

// renderTable lays rows out in padded columns sized to the widest cell.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Width(widths[i] + 2).Render(c)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}
	out := []string{line(header, headerCellStyle)}
	for _, r := range rows {
		out = append(out, line(r, cellStyle))
	}
	return strings.Join(out, "\n")
}

// RenderPreview formats recent records, newest first.
func RenderPreview(items []export.PreviewItem) string {
	if len(items) == 0 {
		return helpStyle.Render(export.AdvisoryAll) + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Timestamp, it.Label, it.EmployeeName, it.Record.ID()})
	}
	return titleStyle.Render("Recent records") + "\n" + renderTable([]string{"timestamp", "category", "employee", "id"}, rows) + "\n"
}

// RenderSummary formats per-category counts with a total line.
func RenderSummary(s export.Summary) string {
	rows := make([][]string, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Label, fmt.Sprint(c.Count)})
	}
	rows = append(rows, []string{"total", fmt.Sprint(s.Total)})
	return renderTable([]string{"category", "records"}, rows) + "\n"
}
