package output

import (
	"fmt"
	"strings"
)

func renderMarkdown(reports []report) string {
	var sb strings.Builder
	for i, r := range reports {
		if i > 0 {
			sb.WriteString("\n")
		}
		if r.Title != "" {
			sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(r.Title)))
		}
		writeMarkdownRow(&sb, r.Header)
		sb.WriteString("|" + strings.Repeat("---|", len(r.Header)) + "\n")
		for _, row := range r.Rows {
			writeMarkdownRow(&sb, row)
		}
		if r.Footer != "" {
			sb.WriteString(fmt.Sprintf("\n**%s**\n", escapeMarkdownCell(r.Footer)))
		}
		sb.WriteString(renderSections(r.Sections, true))
	}
	return sb.String()
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeMarkdownCell(c)
	}
	sb.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
