package extract

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pmcArticleXML = `<pmc-articleset>
	<article>
		<front>
			<journal-meta>
				<journal-title>PMC Test Journal</journal-title>
			</journal-meta>
			<article-meta>
				<article-id pub-id-type="pmc">7000001</article-id>
				<article-id pub-id-type="doi">10.1000/pmc.2020.7</article-id>
				<title-group>
					<article-title>Deep<xref rid="r1"/>Sequencing of Test Genomes</article-title>
				</title-group>
				<contrib-group>
					<contrib contrib-type="author">
						<name><surname>Smith</surname><given-names>Ada</given-names></name>
					</contrib>
					<contrib contrib-type="author">
						<name><surname>Jones</surname></name>
					</contrib>
					<contrib contrib-type="editor">
						<name><surname>NotAnAuthor</surname></name>
					</contrib>
				</contrib-group>
				<pub-date pub-type="ppub"><year>2019</year></pub-date>
				<pub-date pub-type="epub"><year>2020</year><month>2</month><day>10</day></pub-date>
				<abstract>
					<p>We sequenced everything.</p>
				</abstract>
				<kwd-group>
					<kwd>sequencing</kwd>
					<kwd>genomes</kwd>
				</kwd-group>
				<permissions>
					<copyright-statement>Copyright 2020 the authors.</copyright-statement>
				</permissions>
			</article-meta>
		</front>
		<body>
			<sec>
				<title>Introduction</title>
				<p>Genomes are long.</p>
			</sec>
			<sec>
				<title>Methods</title>
				<p>We used a sequencer.</p>
			</sec>
		</body>
	</article>
</pmc-articleset>`

func TestPMCDocument(t *testing.T) {
	e := NewExtractor(zerolog.Nop(), nil)
	doc := mustParse(t, pmcArticleXML)

	articles := e.PMCDocument(doc)
	require.Len(t, articles, 1)
	a := articles[0]

	assert.Equal(t, "7000001", a.PMCID)
	assert.Equal(t, "Deep", a.Title)
	assert.Equal(t, "We sequenced everything.\n", a.Abstract)
	assert.Equal(t, []string{"sequencing", "genomes"}, a.Keywords)
	assert.Equal(t, "PMC Test Journal", a.Journal)
	assert.Equal(t, "Copyright 2020 the authors.", a.Copyrights)
	assert.Equal(t, "10.1000/pmc.2020.7", a.DOI)

	require.NotNil(t, a.PublicationDate)
	assert.Equal(t, time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC), *a.PublicationDate)

	// Only contrib-type="author" names are extracted; missing
	// given-names stay empty.
	require.Len(t, a.Authors, 2)
	assert.Equal(t, "Smith", a.Authors[0].Surname)
	assert.Equal(t, "Ada", a.Authors[0].GivenNames)
	assert.Equal(t, "Jones", a.Authors[1].Surname)
	assert.Equal(t, "", a.Authors[1].GivenNames)

	assert.Equal(t, "Introduction: Genomes are long.\n\nMethods: We used a sequencer.\n\n", a.Body)
	assert.Equal(t, "Introduction: Genomes are long.\n\n", a.Introduction)
	assert.Equal(t, "Methods: We used a sequencer.\n\n", a.Methods)
	assert.Equal(t, "", a.Results)
	assert.Equal(t, "", a.Discussion)
	assert.Equal(t, "", a.Conclusion)

	require.NotNil(t, a.XML)
	assert.Equal(t, "article", a.XML.Tag())
}

func TestPMCDocumentSingleRoot(t *testing.T) {
	e := NewExtractor(zerolog.Nop(), nil)
	doc := mustParse(t, `<article><front><article-meta>
		<article-id pub-id-type="pmc">55</article-id>
	</article-meta></front></article>`)

	articles := e.PMCDocument(doc)
	require.Len(t, articles, 1)
	assert.Equal(t, "55", articles[0].PMCID)
}

func TestPMCArticleNoBody(t *testing.T) {
	e := NewExtractor(zerolog.Nop(), nil)
	doc := mustParse(t, `<article><front><article-meta>
		<article-id pub-id-type="pmc">60</article-id>
		<pub-date pub-type="epub"><year>2022</year></pub-date>
	</article-meta></front></article>`)

	a := e.PMCArticle(doc)

	assert.Equal(t, "60", a.PMCID)
	assert.Equal(t, "", a.Body)
	assert.Equal(t, "", a.Abstract)
	assert.Equal(t, "", a.Introduction)
	require.NotNil(t, a.PublicationDate)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), *a.PublicationDate)
}

func TestPMCArticleMalformedDate(t *testing.T) {
	e := NewExtractor(zerolog.Nop(), nil)
	doc := mustParse(t, `<article><front><article-meta>
		<article-id pub-id-type="pmc">61</article-id>
		<pub-date pub-type="epub"><year>2022</year><month>14</month></pub-date>
	</article-meta></front></article>`)

	a := e.PMCArticle(doc)

	assert.Nil(t, a.PublicationDate)
	assert.Equal(t, "61", a.PMCID)
}
