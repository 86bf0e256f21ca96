package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sectionedBody = `<article><body>
	<sec>
		<title>Introduction</title>
		<p>First intro paragraph.</p>
		<p>Second intro paragraph.</p>
	</sec>
	<sec>
		<title>Materials and Methods</title>
		<p>We measured things.</p>
		<sec>
			<title>Statistics</title>
			<p>We used t-tests.</p>
		</sec>
	</sec>
	<sec>
		<title>Results and Discussion</title>
		<p>It worked.</p>
	</sec>
</body></article>`

func TestClassifySections(t *testing.T) {
	doc := mustParse(t, sectionedBody)
	got := ClassifySections(doc, nil)

	t.Run("simple bucket", func(t *testing.T) {
		assert.Equal(t, "Introduction: First intro paragraph.\n\nSecond intro paragraph.\n\n", got.Introduction)
	})

	t.Run("substring match includes nested paragraphs", func(t *testing.T) {
		// "Materials and Methods" matches the methods bucket, and the
		// nested Statistics subsection's paragraph comes along.
		assert.Equal(t, "Materials and Methods: We measured things.\n\nWe used t-tests.\n\n", got.Methods)
	})

	t.Run("one section can land in two buckets", func(t *testing.T) {
		assert.Equal(t, "Results and Discussion: It worked.\n\n", got.Results)
		assert.Equal(t, "Results and Discussion: It worked.\n\n", got.Discussion)
	})

	t.Run("unmatched bucket stays empty", func(t *testing.T) {
		assert.Equal(t, "", got.Conclusion)
	})
}

func TestClassifySectionsCaseInsensitive(t *testing.T) {
	doc := mustParse(t, `<article><body>
		<sec><title>INTRODUCTION</title><p>Shouty.</p></sec>
		<sec><title>General discussion</title><p>Calm.</p></sec>
	</body></article>`)

	got := ClassifySections(doc, nil)
	assert.Equal(t, "INTRODUCTION: Shouty.\n\n", got.Introduction)
	assert.Equal(t, "General discussion: Calm.\n\n", got.Discussion)
}

func TestClassifySectionsTitleless(t *testing.T) {
	doc := mustParse(t, `<article><body>
		<sec><p>No title here.</p></sec>
	</body></article>`)

	got := ClassifySections(doc, nil)
	assert.Equal(t, Sections{}, got)
}

func TestClassifySectionsSplitTitle(t *testing.T) {
	// The match runs on the title's leading text; the rendered bucket
	// uses the full fragment sequence.
	doc := mustParse(t, `<article><body>
		<sec>
			<title>Discussion<xref rid="fn1"/>and outlook</title>
			<p>Looking ahead.</p>
		</sec>
	</body></article>`)

	got := ClassifySections(doc, nil)
	assert.Equal(t, "Discussion and outlook: Looking ahead.\n\n", got.Discussion)
}

func TestClassifySectionsOnMatch(t *testing.T) {
	doc := mustParse(t, sectionedBody)

	var hits []string
	ClassifySections(doc, func(bucket string) { hits = append(hits, bucket) })
	assert.Equal(t, []string{"introduction", "methods", "results", "discussion"}, hits)
}

func TestBody(t *testing.T) {
	t.Run("sectioned body", func(t *testing.T) {
		doc := mustParse(t, `<article><body>
			<sec>
				<title>Methods</title>
				<p>Step one.</p>
				<sec>
					<title>Details</title>
					<p>Step two.</p>
				</sec>
			</sec>
		</body></article>`)

		// Every descendant section contributes its title and its own
		// direct paragraphs.
		want := "Methods: Step one.\n\nDetails: Step two.\n\n"
		assert.Equal(t, want, Body(doc))
	})

	t.Run("bare body without sections", func(t *testing.T) {
		doc := mustParse(t, `<article><body>
			<p>Only <italic>one</italic> paragraph.</p>
			<p>And another.</p>
		</body></article>`)

		assert.Equal(t, "Only one paragraph.\n\nAnd another.\n\n", Body(doc))
	})

	t.Run("no body", func(t *testing.T) {
		doc := mustParse(t, `<article><front/></article>`)
		assert.Equal(t, "", Body(doc))
	})

	t.Run("empty body", func(t *testing.T) {
		doc := mustParse(t, `<article><body/></article>`)
		assert.Equal(t, "", Body(doc))
	})
}

func TestAbstract(t *testing.T) {
	t.Run("structured abstract uses single newline", func(t *testing.T) {
		doc := mustParse(t, `<article><front><abstract>
			<sec><title>Background</title><p>Why we did it.</p></sec>
			<sec><title>Conclusion</title><p>What we found.</p></sec>
		</abstract></front></article>`)

		want := "Background: Why we did it.\nConclusion: What we found.\n"
		assert.Equal(t, want, Abstract(doc))
	})

	t.Run("bare abstract renders direct children", func(t *testing.T) {
		doc := mustParse(t, `<article><front><abstract>
			<p>Plain abstract text.</p>
		</abstract></front></article>`)

		assert.Equal(t, "Plain abstract text.\n", Abstract(doc))
	})

	t.Run("absent abstract", func(t *testing.T) {
		doc := mustParse(t, `<article><front/></article>`)
		assert.Equal(t, "", Abstract(doc))
	})
}
