package db

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TableWriter renders query output as an ASCII table. Numeric columns are
// right-aligned; everything else is left-aligned.
type TableWriter struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{
		writer: w,
		rows:   make([][]string, 0),
	}
}

// Header sets the column headings.
func (t *TableWriter) Header(headers []string) {
	t.headers = headers
}

// Row adds a single row.
func (t *TableWriter) Row(row []string) {
	t.rows = append(t.rows, row)
}

// Bulk adds multiple rows.
func (t *TableWriter) Bulk(rows [][]string) {
	t.rows = append(t.rows, rows...)
}

// Render writes the formatted table.
func (t *TableWriter) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	widths := t.columnWidths()
	numeric := t.numericColumns()
	separator := buildSeparator(widths)

	fmt.Fprintln(t.writer, separator)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, formatRow(t.headers, widths, nil))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, formatRow(row, widths, numeric))
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *TableWriter) columnWidths() []int {
	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	widths := make([]int, numCols)
	for i, h := range t.headers {
		if len(h) > widths[i] {
			widths[i] = len(h)
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < numCols && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for i := range widths {
		if widths[i] < 1 {
			widths[i] = 1
		}
	}
	return widths
}

// numericColumns reports which columns hold only numbers (or NULLs), so
// they can be right-aligned.
func (t *TableWriter) numericColumns() []bool {
	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	numeric := make([]bool, numCols)
	for i := range numeric {
		numeric[i] = len(t.rows) > 0
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= numCols || cell == "NULL" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[i] = false
			}
		}
	}
	return numeric
}

func buildSeparator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func formatRow(row []string, widths []int, numeric []bool) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", w-len(cell))
		if numeric != nil && i < len(numeric) && numeric[i] {
			parts[i] = " " + pad + cell + " "
		} else {
			parts[i] = " " + cell + pad + " "
		}
	}
	return "|" + strings.Join(parts, "|") + "|"
}
