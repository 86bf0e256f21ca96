// Package extract implements schema-tolerant field extraction over
// PubMed summary-citation XML and PMC full-text XML. Every lookup is
// independent: a missing or malformed field yields its default value
// and never aborts the rest of the record.
package extract

import (
	"strings"

	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// Text collects the own-text of every descendant of n matching the
// selector and joins the non-empty values with sep. When nothing
// matches, def is returned. A selector that matches only text-less
// elements yields "" rather than def: the field exists, it is just
// empty.
func Text(n *xmltree.Node, selector, def, sep string) string {
	if n == nil {
		return def
	}
	matches := n.FindAll(selector)
	if len(matches) == 0 {
		return def
	}
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := m.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, sep)
}

// TextList returns the own-text of every descendant matching the
// selector, in document order, dropping entries whose text is empty.
func TextList(n *xmltree.Node, selector string) []string {
	matches := n.FindAll(selector)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := m.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}
