package tui

import (
	"strings"
	"unicode/utf8"
)

// RenderTable renders headers and rows as aligned columns. Column widths
// follow the widest cell; cells beyond the header count are dropped.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	styles := NewTableStyles()
	var b strings.Builder
	b.WriteString(styles.Header.Render(formatRow(headers, widths)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(styles.Cell.Render(formatRow(row, widths)))
		b.WriteString("\n")
	}
	return b.String()
}

// formatRow pads each cell to its column width with two spaces between
// columns. The last column is not padded.
func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(cell)+2))
	}
	return strings.TrimRight(b.String(), " ")
}
