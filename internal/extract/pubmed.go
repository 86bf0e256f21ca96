package extract

import (
	"time"

	"github.com/helixir/article-extraction-service/internal/domain"
	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// pubmedArticleTag is the element wrapping one citation in an efetch
// response from the pubmed database.
const pubmedArticleTag = "PubmedArticle"

// PubMedDocument extracts every citation found in a fetched XML
// document. The root may be a PubmedArticleSet or a single
// PubmedArticle element.
func (e *Extractor) PubMedDocument(root *xmltree.Node) []*domain.PubMedArticle {
	start := time.Now()
	nodes := articleNodes(root, pubmedArticleTag)
	articles := make([]*domain.PubMedArticle, 0, len(nodes))
	for _, n := range nodes {
		articles = append(articles, e.PubMedArticle(n))
	}
	if e.metrics != nil {
		e.metrics.RecordExtraction(string(domain.SchemaPubMed), len(articles), time.Since(start).Seconds())
	}
	return articles
}

// PubMedArticle extracts one citation record. Every field is optional:
// a missing node leaves the field empty and the rest of the record
// intact. A malformed publication date is logged and dropped.
func (e *Extractor) PubMedArticle(n *xmltree.Node) *domain.PubMedArticle {
	article := &domain.PubMedArticle{
		PubMedID:   Text(n, ".//ArticleId[@IdType='pubmed']", "", "\n"),
		Title:      Text(n, ".//ArticleTitle", "", "\n"),
		Keywords:   TextList(n, ".//Keyword"),
		Journal:    Text(n, ".//Journal/Title", "", "\n"),
		Abstract:   Text(n, ".//AbstractText", "", "\n"),
		Copyrights: Text(n, ".//CopyrightInformation", "", "\n"),
		DOI:        Text(n, ".//ArticleId[@IdType='doi']", "", "\n"),
		Authors:    pubmedAuthors(n),
		XML:        n,
	}

	date, err := ResolvePubMedDate(n)
	if err != nil {
		diag := domain.NewMalformedDateError(PrimaryID(article.PubMedID), "", err)
		e.logger.Warn().Err(diag).Str("schema", string(domain.SchemaPubMed)).Msg("publication date dropped")
		if e.metrics != nil {
			e.metrics.RecordDateResolutionFailure(string(domain.SchemaPubMed))
		}
	} else {
		article.PublicationDate = date
	}

	if e.metrics != nil {
		e.metrics.RecordArticleExtracted(string(domain.SchemaPubMed))
	}
	return article
}

// pubmedAuthors extracts the author list. Each name part is looked up
// independently, so an author node missing its ForeName still yields
// its LastName and Initials.
func pubmedAuthors(n *xmltree.Node) []domain.PubMedAuthor {
	nodes := n.FindAll(".//Author")
	authors := make([]domain.PubMedAuthor, 0, len(nodes))
	for _, a := range nodes {
		authors = append(authors, domain.PubMedAuthor{
			LastName:    Text(a, ".//LastName", "", "\n"),
			FirstName:   Text(a, ".//ForeName", "", "\n"),
			Initials:    Text(a, ".//Initials", "", "\n"),
			Affiliation: Text(a, ".//AffiliationInfo/Affiliation", "", "\n"),
		})
	}
	return authors
}

// articleNodes returns the article elements of a fetched document: the
// root itself when it is one, otherwise every matching descendant.
func articleNodes(root *xmltree.Node, tag string) []*xmltree.Node {
	if root.Tag() == tag {
		return []*xmltree.Node{root}
	}
	return root.FindAll(".//" + tag)
}
