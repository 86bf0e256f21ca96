package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// StoredArticle is the persisted form of an extracted record. Both
// schemas share one shape: the authors keep their schema-specific keys
// as raw JSON, and the PMC section buckets live in Sections (empty for
// PubMed citations).
type StoredArticle struct {
	ID              uuid.UUID
	ArticleID       string
	Schema          Schema
	Title           string
	Abstract        string
	Keywords        []string
	Journal         string
	PublicationDate *time.Time
	Authors         json.RawMessage
	Sections        map[string]string
	Copyrights      string
	DOI             string
	RawXML          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewStoredFromPubMed converts a PubMed citation record to its
// persisted form. The article's primary ID must be non-empty.
func NewStoredFromPubMed(a *PubMedArticle, articleID string) (*StoredArticle, error) {
	if articleID == "" {
		return nil, NewValidationError("article_id", "article ID is required")
	}
	authors, err := json.Marshal(a.Authors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authors: %w", err)
	}
	return &StoredArticle{
		ArticleID:       articleID,
		Schema:          SchemaPubMed,
		Title:           a.Title,
		Abstract:        a.Abstract,
		Keywords:        a.Keywords,
		Journal:         a.Journal,
		PublicationDate: a.PublicationDate,
		Authors:         authors,
		Copyrights:      a.Copyrights,
		DOI:             a.DOI,
		RawXML:          nodeString(a.XML),
	}, nil
}

// NewStoredFromPMC converts a PMC full-text record to its persisted
// form. The article's primary ID must be non-empty.
func NewStoredFromPMC(a *PMCArticle, articleID string) (*StoredArticle, error) {
	if articleID == "" {
		return nil, NewValidationError("article_id", "article ID is required")
	}
	authors, err := json.Marshal(a.Authors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authors: %w", err)
	}
	sections := map[string]string{}
	if a.Body != "" {
		sections["body"] = a.Body
	}
	if a.Introduction != "" {
		sections["introduction"] = a.Introduction
	}
	if a.Methods != "" {
		sections["methods"] = a.Methods
	}
	if a.Results != "" {
		sections["results"] = a.Results
	}
	if a.Discussion != "" {
		sections["discussion"] = a.Discussion
	}
	if a.Conclusion != "" {
		sections["conclusion"] = a.Conclusion
	}
	return &StoredArticle{
		ArticleID:       articleID,
		Schema:          SchemaPMC,
		Title:           a.Title,
		Abstract:        a.Abstract,
		Keywords:        a.Keywords,
		Journal:         a.Journal,
		PublicationDate: a.PublicationDate,
		Authors:         authors,
		Sections:        sections,
		Copyrights:      a.Copyrights,
		DOI:             a.DOI,
		RawXML:          nodeString(a.XML),
	}, nil
}

func nodeString(n *xmltree.Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}
