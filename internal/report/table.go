package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

type align int

const (
	alignLeft align = iota
	alignRight
)

type column struct {
	title string
	align align
}

func left(title string) column  { return column{title: title, align: alignLeft} }
func right(title string) column { return column{title: title, align: alignRight} }

// table lays rows out in display-width aligned columns.
type table struct {
	columns []column
	rows    [][]string
}

func newTable(columns ...column) *table {
	return &table{columns: columns}
}

// add appends a row. Missing cells render empty and extra cells are dropped.
func (t *table) add(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// lines renders the header and every row with trailing spaces trimmed.
func (t *table) lines() []string {
	if len(t.columns) == 0 {
		return nil
	}
	header := make([]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = c.title
	}
	widths := columnWidths(append([][]string{header}, t.rows...))

	out := make([]string, 0, len(t.rows)+1)
	out = append(out, t.render(header, widths))
	for _, row := range t.rows {
		out = append(out, t.render(row, widths))
	}
	return out
}

func (t *table) render(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if t.columns[i].align == alignRight {
			padded[i] = runewidth.FillLeft(cell, widths[i])
		} else {
			padded[i] = runewidth.FillRight(cell, widths[i])
		}
	}
	return strings.TrimRight(strings.Join(padded, columnGap), " ")
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	return widths
}
