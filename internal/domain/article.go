package domain

import (
	"encoding/json"
	"time"

	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// Schema identifies the XML schema an article record was extracted from.
type Schema string

const (
	SchemaPubMed Schema = "pubmed"
	SchemaPMC    Schema = "pmc"
)

// PubMedAuthor is one author of a PubMed citation. Every field is
// independently optional; an empty string means the source node did not
// carry that sub-field.
type PubMedAuthor struct {
	LastName    string `json:"lastname"`
	FirstName   string `json:"firstname"`
	Initials    string `json:"initials"`
	Affiliation string `json:"affiliation"`
}

// PMCAuthor is one author of a PMC full-text article. The PMC schema
// only carries name parts, no per-author affiliation.
type PMCAuthor struct {
	Surname    string `json:"surname"`
	GivenNames string `json:"given_names"`
}

// PubMedArticle is the normalized record extracted from one PubMed
// summary citation. Fields are set once by the extractor and must be
// treated as read-only afterwards; empty string means the field was
// absent from the source document.
type PubMedArticle struct {
	PubMedID        string
	Title           string
	Abstract        string
	Keywords        []string
	Journal         string
	PublicationDate *time.Time
	Authors         []PubMedAuthor
	Copyrights      string
	DOI             string
	XML             *xmltree.Node
}

// ToMap returns the lossless mapping form of the record. Every key is
// always present; absent scalar fields map to nil, the source node is
// carried as-is.
func (a *PubMedArticle) ToMap() map[string]any {
	authors := make([]map[string]any, 0, len(a.Authors))
	for _, au := range a.Authors {
		authors = append(authors, map[string]any{
			"lastname":    nullable(au.LastName),
			"firstname":   nullable(au.FirstName),
			"initials":    nullable(au.Initials),
			"affiliation": nullable(au.Affiliation),
		})
	}
	return map[string]any{
		"pubmed_id":        nullable(a.PubMedID),
		"title":            nullable(a.Title),
		"abstract":         nullable(a.Abstract),
		"keywords":         a.Keywords,
		"journal":          nullable(a.Journal),
		"publication_date": a.PublicationDate,
		"authors":          authors,
		"copyrights":       nullable(a.Copyrights),
		"doi":              nullable(a.DOI),
		"xml":              a.XML,
	}
}

// ToJSON returns the record as indented JSON with keys in sorted order.
// The publication date is rendered as YYYY-MM-DD and the XML node as
// its serialized subtree.
func (a *PubMedArticle) ToJSON() ([]byte, error) {
	return marshalRecord(a.ToMap())
}

// PMCArticle is the normalized record extracted from one PMC full-text
// article. On top of the citation metadata it carries the flattened
// body and the five canonical section buckets; a bucket is empty when
// no section title matched its name.
type PMCArticle struct {
	PMCID           string
	Title           string
	Abstract        string
	Keywords        []string
	Journal         string
	PublicationDate *time.Time
	Authors         []PMCAuthor
	Body            string
	Introduction    string
	Methods         string
	Results         string
	Discussion      string
	Conclusion      string
	Copyrights      string
	DOI             string
	XML             *xmltree.Node
}

// ToMap returns the lossless mapping form of the record. Every key is
// always present; absent scalar fields map to nil, the source node is
// carried as-is.
func (a *PMCArticle) ToMap() map[string]any {
	authors := make([]map[string]any, 0, len(a.Authors))
	for _, au := range a.Authors {
		authors = append(authors, map[string]any{
			"surname":     nullable(au.Surname),
			"given_names": nullable(au.GivenNames),
		})
	}
	return map[string]any{
		"pmc_id":           nullable(a.PMCID),
		"title":            nullable(a.Title),
		"abstract":         nullable(a.Abstract),
		"keywords":         a.Keywords,
		"journal":          nullable(a.Journal),
		"publication_date": a.PublicationDate,
		"authors":          authors,
		"body":             nullable(a.Body),
		"introduction":     nullable(a.Introduction),
		"methods":          nullable(a.Methods),
		"results":          nullable(a.Results),
		"discussion":       nullable(a.Discussion),
		"conclusion":       nullable(a.Conclusion),
		"copyrights":       nullable(a.Copyrights),
		"doi":              nullable(a.DOI),
		"xml":              a.XML,
	}
}

// ToJSON returns the record as indented JSON with keys in sorted order.
func (a *PMCArticle) ToJSON() ([]byte, error) {
	return marshalRecord(a.ToMap())
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// marshalRecord converts the non-JSON-native values of a record map
// (dates, the retained XML node) to strings and marshals the result.
// Map key ordering is lexicographic per encoding/json.
func marshalRecord(m map[string]any) ([]byte, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonValue(v)
	}
	return json.MarshalIndent(out, "", "    ")
}

func jsonValue(v any) any {
	switch val := v.(type) {
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Format("2006-01-02")
	case *xmltree.Node:
		if val == nil {
			return nil
		}
		return val.String()
	case []map[string]any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			converted := make(map[string]any, len(item))
			for k, iv := range item {
				converted[k] = jsonValue(iv)
			}
			out = append(out, converted)
		}
		return out
	default:
		return v
	}
}
