package output

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderTable(reports []report) string {
	rendered := make([]string, 0, len(reports))
	for _, r := range reports {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.Style().Format.Footer = text.FormatDefault
		if r.Title != "" {
			t.SetTitle(r.Title)
		}
		t.AppendHeader(toRow(r.Header))
		for _, row := range r.Rows {
			t.AppendRow(toRow(row))
		}
		if r.Footer != "" {
			footer := make(table.Row, len(r.Header))
			footer[len(footer)-1] = r.Footer
			t.AppendFooter(footer)
		}

		out := t.Render()
		out += renderSections(r.Sections, false)
		rendered = append(rendered, out)
	}
	return strings.Join(rendered, "\n\n")
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
