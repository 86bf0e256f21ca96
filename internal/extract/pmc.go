package extract

import (
	"time"

	"github.com/helixir/article-extraction-service/internal/domain"
	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// pmcArticleTag is the element wrapping one full-text article in an
// efetch response from the pmc database.
const pmcArticleTag = "article"

// PMCDocument extracts every article found in a fetched XML document.
// The root may be a pmc-articleset or a single article element.
func (e *Extractor) PMCDocument(root *xmltree.Node) []*domain.PMCArticle {
	start := time.Now()
	nodes := articleNodes(root, pmcArticleTag)
	articles := make([]*domain.PMCArticle, 0, len(nodes))
	for _, n := range nodes {
		articles = append(articles, e.PMCArticle(n))
	}
	if e.metrics != nil {
		e.metrics.RecordExtraction(string(domain.SchemaPMC), len(articles), time.Since(start).Seconds())
	}
	return articles
}

// PMCArticle extracts one full-text record: the citation metadata, the
// flattened abstract and body, and the five canonical section buckets.
// Every field is optional; a malformed publication date is logged and
// dropped.
func (e *Extractor) PMCArticle(n *xmltree.Node) *domain.PMCArticle {
	var onMatch func(string)
	if e.metrics != nil {
		onMatch = e.metrics.RecordSectionBucketHit
	}
	sections := ClassifySections(n, onMatch)

	article := &domain.PMCArticle{
		PMCID:        Text(n, ".//article-id[@pub-id-type='pmc']", "", "\n"),
		Title:        Text(n, ".//title-group/article-title", "", "\n"),
		Keywords:     TextList(n, ".//kwd-group/kwd"),
		Journal:      Text(n, ".//journal-title", "", "\n"),
		Abstract:     Abstract(n),
		Body:         Body(n),
		Introduction: sections.Introduction,
		Methods:      sections.Methods,
		Results:      sections.Results,
		Discussion:   sections.Discussion,
		Conclusion:   sections.Conclusion,
		Copyrights:   Text(n, ".//permissions/copyright-statement", "", "\n"),
		DOI:          Text(n, ".//article-id[@pub-id-type='doi']", "", "\n"),
		Authors:      pmcAuthors(n),
		XML:          n,
	}

	date, err := ResolvePMCDate(n)
	if err != nil {
		diag := domain.NewMalformedDateError(PrimaryID(article.PMCID), "", err)
		e.logger.Warn().Err(diag).Str("schema", string(domain.SchemaPMC)).Msg("publication date dropped")
		if e.metrics != nil {
			e.metrics.RecordDateResolutionFailure(string(domain.SchemaPMC))
		}
	} else {
		article.PublicationDate = date
	}

	if e.metrics != nil {
		e.metrics.RecordArticleExtracted(string(domain.SchemaPMC))
	}
	return article
}

// pmcAuthors extracts the author list from the contributor group. The
// PMC schema carries only name parts, each independently optional.
func pmcAuthors(n *xmltree.Node) []domain.PMCAuthor {
	nodes := n.FindAll(".//contrib-group/contrib[@contrib-type='author']/name")
	authors := make([]domain.PMCAuthor, 0, len(nodes))
	for _, a := range nodes {
		authors = append(authors, domain.PMCAuthor{
			Surname:    Text(a, ".//surname", "", "\n"),
			GivenNames: Text(a, ".//given-names", "", "\n"),
		})
	}
	return authors
}
