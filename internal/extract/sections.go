package extract

import (
	"strings"

	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// Canonical section bucket names. Matching is a case-insensitive
// substring test against the section title, so "Materials and Methods"
// lands in the methods bucket and "Results and Discussion" lands in
// both results and discussion.
const (
	BucketIntroduction = "introduction"
	BucketMethods      = "methods"
	BucketResults      = "results"
	BucketDiscussion   = "discussion"
	BucketConclusion   = "conclusion"
)

// Sections holds the five canonical section buckets of a PMC article.
// An empty bucket means no top-level section title matched its name.
type Sections struct {
	Introduction string
	Methods      string
	Results      string
	Discussion   string
	Conclusion   string
}

// Abstract renders the abstract of a PMC article: a structured abstract
// is flattened section by section with "\n" paragraph separators, a
// bare one child by child. Returns "" when nothing renders.
func Abstract(n *xmltree.Node) string {
	return flatten(n, ".//abstract", "\n")
}

// Body renders the whole article body with "\n\n" paragraph separators.
// Returns "" when nothing renders.
func Body(n *xmltree.Node) string {
	return flatten(n, ".//body", "\n\n")
}

// flatten renders every subtree matching path. A subtree with a direct
// sec child is walked section by section: each descendant sec
// contributes its rendered title followed by ": " and then each of its
// direct paragraphs followed by sep. A subtree without sections
// contributes each direct child's rendered text followed by sep.
func flatten(n *xmltree.Node, path, sep string) string {
	var b strings.Builder
	for _, top := range n.FindAll(path) {
		if top.Find("sec") != nil {
			for _, sec := range top.FindAll(".//sec") {
				if title := sec.Find("title"); title != nil {
					b.WriteString(title.RenderedText())
					b.WriteString(": ")
				}
				for _, p := range sec.FindAll("p") {
					b.WriteString(p.RenderedText())
					b.WriteString(sep)
				}
			}
		} else {
			for _, child := range top.Children() {
				b.WriteString(child.RenderedText())
				b.WriteString(sep)
			}
		}
	}
	return b.String()
}

// ClassifySections buckets the top-level body sections of a PMC
// article by canonical name. Each bucket is filled by an independent
// pass, so a title like "Results and Discussion" is copied into every
// bucket it matches. The onMatch hook, when non-nil, is invoked once
// per matched section with the bucket name.
func ClassifySections(n *xmltree.Node, onMatch func(bucket string)) Sections {
	return Sections{
		Introduction: section(n, BucketIntroduction, onMatch),
		Methods:      section(n, BucketMethods, onMatch),
		Results:      section(n, BucketResults, onMatch),
		Discussion:   section(n, BucketDiscussion, onMatch),
		Conclusion:   section(n, BucketConclusion, onMatch),
	}
}

// section renders every top-level body sec whose title contains name,
// ignoring case. The title match uses the title's own leading text;
// the rendered output uses the full fragment walk. Paragraphs are
// collected from the whole section subtree, nested subsections
// included.
func section(n *xmltree.Node, name string, onMatch func(bucket string)) string {
	var b strings.Builder
	for _, sec := range n.FindAll(".//body/sec") {
		title := sec.Find("title")
		if title == nil {
			continue
		}
		if !strings.Contains(strings.ToLower(title.Text()), name) {
			continue
		}
		if onMatch != nil {
			onMatch(name)
		}
		b.WriteString(title.RenderedText())
		b.WriteString(": ")
		for _, p := range sec.FindAll(".//p") {
			b.WriteString(p.RenderedText())
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
