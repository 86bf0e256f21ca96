package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/article-extraction-service/internal/domain"
	"github.com/helixir/article-extraction-service/internal/eutils"
	"github.com/helixir/article-extraction-service/internal/extract"
	"github.com/helixir/article-extraction-service/internal/repository"
	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// Pagination and validation constants.
const (
	defaultPageSize     = 50
	maxPageSize         = 100
	defaultMaxBodyBytes = 50 << 20
	dateLayout          = "2006-01-02"
)

// fetchRequest is the JSON request body for POST /api/v1/fetch.
type fetchRequest struct {
	Query      string  `json:"query" validate:"required,min=3,max=10000"`
	Schema     string  `json:"schema" validate:"required,oneof=pubmed pmc"`
	MaxResults int     `json:"max_results" validate:"omitempty,min=1,max=10000"`
	Offset     int     `json:"offset" validate:"omitempty,min=0"`
	DateFrom   *string `json:"date_from,omitempty"`
	DateTo     *string `json:"date_to,omitempty"`
}

// extractHandler handles POST /api/v1/extract. The request body is a
// raw XML document; the schema query parameter selects the extraction
// rules. The extracted records are returned without being persisted.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	schema, err := parseSchema(r.URL.Query().Get("schema"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	doc, err := xmltree.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body is not well-formed XML")
		return
	}

	extracted, failures := s.extractAll([]*xmltree.Node{doc}, schema)

	records := make([]json.RawMessage, 0, len(extracted))
	for _, ea := range extracted {
		records = append(records, ea.record)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schema":   schema,
		"count":    len(records),
		"failed":   len(failures),
		"articles": records,
	})
}

// fetchHandler handles POST /api/v1/fetch. It searches the configured
// source for matching article IDs, retrieves and extracts the article
// XML, persists the records and publishes extraction events.
func (s *Server) fetchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req fetchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}
	schema := domain.Schema(req.Schema)

	params := eutils.SearchParams{
		Query:      req.Query,
		MaxResults: req.MaxResults,
		Offset:     req.Offset,
	}
	if req.DateFrom != nil {
		t, parseErr := time.Parse(dateLayout, *req.DateFrom)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid date_from format: expected YYYY-MM-DD")
			return
		}
		params.DateFrom = &t
	}
	if req.DateTo != nil {
		t, parseErr := time.Parse(dateLayout, *req.DateTo)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid date_to format: expected YYYY-MM-DD")
			return
		}
		params.DateTo = &t
	}

	docs, err := s.fetcher.SearchAndFetch(ctx, string(schema), params)
	if err != nil {
		s.logger.Error().Err(err).Str("query", req.Query).Msg("fetch failed")
		writeDomainError(w, err)
		return
	}

	extracted, failures := s.extractAll(docs, schema)

	stored := make([]*domain.StoredArticle, 0, len(extracted))
	for _, ea := range extracted {
		stored = append(stored, ea.stored)
	}
	if s.articleRepo != nil && len(stored) > 0 {
		if _, err := s.articleRepo.BulkUpsert(ctx, stored); err != nil {
			s.logger.Error().Err(err).Msg("failed to store articles")
			writeDomainError(w, err)
			return
		}
	}

	s.publishExtractionEvents(ctx, req.Query, schema, extracted, failures, time.Since(start))

	articleIDs := make([]string, 0, len(extracted))
	for _, ea := range extracted {
		articleIDs = append(articleIDs, ea.stored.ArticleID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":       req.Query,
		"schema":      schema,
		"documents":   len(docs),
		"extracted":   len(extracted),
		"failed":      len(failures),
		"article_ids": articleIDs,
	})
}

// getArticleHandler handles GET /api/v1/articles/{articleID}.
func (s *Server) getArticleHandler(w http.ResponseWriter, r *http.Request) {
	schema, err := parseSchema(r.URL.Query().Get("schema"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	articleID := chi.URLParam(r, "articleID")
	article, err := s.articleRepo.GetByArticleID(r.Context(), schema, articleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	includeXML := r.URL.Query().Get("include_xml") == "true"
	writeJSON(w, http.StatusOK, storedArticleToResponse(article, includeXML))
}

// listArticlesHandler handles GET /api/v1/articles.
func (s *Server) listArticlesHandler(w http.ResponseWriter, r *http.Request) {
	filter := repository.ArticleFilter{}

	if raw := r.URL.Query().Get("schema"); raw != "" {
		schema, err := parseSchema(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.Schema = &schema
	}
	if journal := r.URL.Query().Get("journal"); journal != "" {
		filter.Journal = &journal
	}
	filter.Limit, filter.Offset = parsePaginationParams(r)

	articles, totalCount, err := s.articleRepo.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		items = append(items, storedArticleToResponse(a, false))
	}

	writeJSON(w, http.StatusOK, listArticlesResponse{
		Articles:      items,
		NextPageToken: encodePageToken(filter.Offset, filter.Limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// articleResponse is the JSON representation of a stored article.
type articleResponse struct {
	ID              string            `json:"id"`
	ArticleID       string            `json:"article_id"`
	Schema          string            `json:"schema"`
	Title           string            `json:"title"`
	Abstract        string            `json:"abstract,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
	Journal         string            `json:"journal,omitempty"`
	PublicationDate string            `json:"publication_date,omitempty"`
	Authors         json.RawMessage   `json:"authors,omitempty"`
	Sections        map[string]string `json:"sections,omitempty"`
	Copyrights      string            `json:"copyrights,omitempty"`
	DOI             string            `json:"doi,omitempty"`
	RawXML          string            `json:"raw_xml,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// listArticlesResponse is the JSON response for GET /api/v1/articles.
type listArticlesResponse struct {
	Articles      []articleResponse `json:"articles"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	TotalCount    int               `json:"total_count"`
}

func storedArticleToResponse(a *domain.StoredArticle, includeXML bool) articleResponse {
	resp := articleResponse{
		ID:         a.ID.String(),
		ArticleID:  a.ArticleID,
		Schema:     string(a.Schema),
		Title:      a.Title,
		Abstract:   a.Abstract,
		Keywords:   a.Keywords,
		Journal:    a.Journal,
		Authors:    a.Authors,
		Sections:   a.Sections,
		Copyrights: a.Copyrights,
		DOI:        a.DOI,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.PublicationDate != nil {
		resp.PublicationDate = a.PublicationDate.Format(dateLayout)
	}
	if includeXML {
		resp.RawXML = a.RawXML
	}
	return resp
}

// extractedArticle pairs a record's client-facing JSON form with its
// persisted form.
type extractedArticle struct {
	record json.RawMessage
	stored *domain.StoredArticle
}

// extractionFailure describes an article that could not be converted
// (no usable identifier, marshalling failure). The ID may be empty.
type extractionFailure struct {
	articleID string
	err       error
}

// extractAll runs the schema's extraction rules over every document and
// returns the convertible records plus the articles that were rejected.
func (s *Server) extractAll(docs []*xmltree.Node, schema domain.Schema) ([]extractedArticle, []extractionFailure) {
	var out []extractedArticle
	var failures []extractionFailure

	for _, doc := range docs {
		switch schema {
		case domain.SchemaPMC:
			for _, a := range s.extractor.PMCDocument(doc) {
				ea, err := convertPMC(a)
				if err != nil {
					failures = append(failures, s.recordFailure(schema, extract.PrimaryID(a.PMCID), err))
					continue
				}
				out = append(out, ea)
			}
		default:
			for _, a := range s.extractor.PubMedDocument(doc) {
				ea, err := convertPubMed(a)
				if err != nil {
					failures = append(failures, s.recordFailure(schema, extract.PrimaryID(a.PubMedID), err))
					continue
				}
				out = append(out, ea)
			}
		}
	}

	return out, failures
}

func convertPubMed(a *domain.PubMedArticle) (extractedArticle, error) {
	stored, err := domain.NewStoredFromPubMed(a, extract.PrimaryID(a.PubMedID))
	if err != nil {
		return extractedArticle{}, err
	}
	record, err := a.ToJSON()
	if err != nil {
		return extractedArticle{}, err
	}
	return extractedArticle{record: record, stored: stored}, nil
}

func convertPMC(a *domain.PMCArticle) (extractedArticle, error) {
	stored, err := domain.NewStoredFromPMC(a, extract.PrimaryID(a.PMCID))
	if err != nil {
		return extractedArticle{}, err
	}
	record, err := a.ToJSON()
	if err != nil {
		return extractedArticle{}, err
	}
	return extractedArticle{record: record, stored: stored}, nil
}

func (s *Server) recordFailure(schema domain.Schema, articleID string, err error) extractionFailure {
	if s.metrics != nil {
		s.metrics.RecordArticleFailed(string(schema))
	}
	s.logger.Warn().Err(err).
		Str("schema", string(schema)).
		Str("article_id", articleID).
		Msg("article discarded during extraction")
	return extractionFailure{articleID: articleID, err: err}
}

// publishExtractionEvents emits one event per extracted article, one
// per rejected article, plus a fetch summary event. Publish failures
// are logged but do not fail the request; the articles are already
// persisted.
func (s *Server) publishExtractionEvents(ctx context.Context, query string, schema domain.Schema, extracted []extractedArticle, failures []extractionFailure, duration time.Duration) {
	if s.publisher == nil {
		return
	}

	for _, ea := range extracted {
		payload := domain.ArticleExtractedPayload{
			ArticleID: ea.stored.ArticleID,
			Schema:    schema,
			Title:     ea.stored.Title,
			Journal:   ea.stored.Journal,
			DOI:       ea.stored.DOI,
			Keywords:  ea.stored.Keywords,
		}
		if ea.stored.PublicationDate != nil {
			payload.PublicationDate = ea.stored.PublicationDate.Format(dateLayout)
		}
		event, err := domain.NewExtractionEvent(domain.EventTypeArticleExtracted, ea.stored.ArticleID, schema, payload)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to build extraction event")
			continue
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error().Err(err).Str("article_id", ea.stored.ArticleID).Msg("failed to publish event")
		}
	}

	for _, f := range failures {
		payload := domain.ArticleFailedPayload{
			ArticleID: f.articleID,
			Schema:    schema,
			Error:     f.err.Error(),
		}
		event, err := domain.NewExtractionEvent(domain.EventTypeArticleFailed, f.articleID, schema, payload)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to build failure event")
			continue
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error().Err(err).Str("article_id", f.articleID).Msg("failed to publish failure event")
		}
	}

	summary := domain.FetchCompletedPayload{
		Query:     query,
		Schema:    schema,
		Requested: len(extracted) + len(failures),
		Extracted: len(extracted),
		Failed:    len(failures),
		Duration:  duration,
	}
	event, err := domain.NewExtractionEvent(domain.EventTypeFetchCompleted, "", schema, summary)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build fetch summary event")
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish fetch summary event")
	}
}

// parseSchema validates the schema query parameter.
func parseSchema(raw string) (domain.Schema, error) {
	switch raw {
	case string(domain.SchemaPubMed):
		return domain.SchemaPubMed, nil
	case string(domain.SchemaPMC):
		return domain.SchemaPMC, nil
	case "":
		return "", domain.NewValidationError("schema", "schema is required")
	default:
		return "", domain.NewValidationError("schema", "schema must be pubmed or pmc")
	}
}

// parsePaginationParams extracts page_size and page_token from query parameters.
// It applies default and maximum bounds to the page size.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if parsed, err := strconv.Atoi(pageSizeStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if pageToken := r.URL.Query().Get("page_token"); pageToken != "" {
		decoded, err := base64.StdEncoding.DecodeString(pageToken)
		if err == nil {
			if parsed, parseErr := strconv.Atoi(string(decoded)); parseErr == nil && parsed > 0 {
				offset = parsed
			}
		}
	}

	return limit, offset
}

// encodePageToken encodes the next offset as a base64 page token.
// Returns an empty string if there are no more results.
func encodePageToken(offset, limit, totalCount int) string {
	nextOffset := offset + limit
	if nextOffset < totalCount {
		return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(nextOffset)))
	}
	return ""
}
