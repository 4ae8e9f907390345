// Package export renders catalog snapshots as markdown documents: a
// summary table of category counts followed by per-category node
// listings.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/errors"
)

// Markdown writes the catalog as a markdown document.
func Markdown(w io.Writer, catalog *catalogs.Catalog) error {
	if catalog == nil {
		return errors.NewValidationError("catalog", nil, "must not be nil")
	}

	var b strings.Builder
	b.WriteString("# Node Types\n\n")
	fmt.Fprintf(&b, "Exported: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total:** %d unique node types\n\n", catalog.Len())
	b.WriteString("---\n\n")

	counts := catalog.Counts()
	b.WriteString("## Overview\n\n")
	b.WriteString("| Category | Count |\n")
	b.WriteString("|----------|-------|\n")
	for _, cat := range catalogs.Categories() {
		if counts[cat] > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", sectionTitle(cat), counts[cat])
		}
	}
	fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", catalog.Len())
	b.WriteString("---\n\n")

	for _, cat := range catalogs.Categories() {
		nodes := catalog.ByCategory(cat)
		if len(nodes) == 0 {
			continue
		}

		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(cat))
		fmt.Fprintf(&b, "**Count:** %d\n\n", len(nodes))
		b.WriteString("| Node Type | Display Name | Info |\n")
		b.WriteString("|-----------|--------------|------|\n")
		for _, n := range nodes {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n",
				n.Type, cell(n.DisplayName), cell(n.Description))
		}
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.WrapIO("write", "markdown export", err)
	}
	return nil
}

// sectionTitle renders a category as a section heading.
func sectionTitle(cat catalogs.Category) string {
	return string(cat) + " Nodes"
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}
