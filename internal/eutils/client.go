package eutils

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/article-extraction-service/internal/batch"
	"github.com/helixir/article-extraction-service/internal/domain"
	"github.com/helixir/article-extraction-service/internal/observability"
	"github.com/helixir/article-extraction-service/internal/xmltree"
)

const (
	// DefaultBaseURL is the base URL for the NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per search.
	DefaultMaxResults = 100

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// DefaultFetchBatchSize is the number of IDs fetched per efetch request.
	DefaultFetchBatchSize = 200

	// DBPubMed is the E-utilities database holding summary citations.
	DBPubMed = "pubmed"

	// DBPMC is the E-utilities database holding full-text manuscripts.
	DBPMC = "pmc"

	// sourceName is the human-readable name for this source.
	sourceName = "E-utilities"

	defaultUserAgent = "Helixir-ArticleExtraction/1.0 (mailto:support@helixir.io)"
)

// Config holds the configuration for the E-utilities client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits.
	// Optional but recommended for production use.
	APIKey string

	// Timeout is the request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit (3 req/sec) if zero.
	// With an API key, NCBI permits 10 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// MaxResults is the default maximum results per search.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int

	// FetchBatchSize is the number of IDs per efetch request.
	// Defaults to DefaultFetchBatchSize if zero.
	FetchBatchSize int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.FetchBatchSize == 0 {
		c.FetchBatchSize = DefaultFetchBatchSize
	}
}

// SearchParams are the parameters of an esearch query.
type SearchParams struct {
	// Query is the search term, using PubMed query syntax.
	Query string

	// MaxResults caps the number of IDs returned. Zero means the
	// client default.
	MaxResults int

	// Offset is the retstart position for paging.
	Offset int

	// DateFrom and DateTo filter on publication date when set.
	DateFrom *time.Time
	DateTo   *time.Time
}

// Client is a rate-limited NCBI E-utilities client. It searches for
// article IDs with esearch and retrieves article XML with efetch,
// returning parsed document roots ready for extraction.
type Client struct {
	config     Config
	httpClient *HTTPClient
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a new E-utilities client with the given configuration.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	var onRateLimited func()
	if metrics != nil {
		onRateLimited = metrics.RecordEUtilsRateLimited
	}

	httpCfg := HTTPClientConfig{
		Timeout:       cfg.Timeout,
		RateLimit:     cfg.RateLimit,
		BurstSize:     cfg.BurstSize,
		OnRateLimited: onRateLimited,
	}

	return &Client{
		config:     cfg,
		httpClient: NewHTTPClient(httpCfg),
		logger:     observability.WithComponent(logger, "eutils"),
		metrics:    metrics,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     observability.WithComponent(logger, "eutils"),
		metrics:    metrics,
	}
}

// Search runs an esearch query against db and returns the matching
// article IDs. A query phrase the API cannot resolve yields an empty
// result, not an error.
func (c *Client) Search(ctx context.Context, db string, params SearchParams) ([]string, error) {
	start := time.Now()

	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("db", db)
	q.Set("term", params.Query)
	q.Set("retmode", "xml")
	q.Set("usehistory", "n")

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}
	q.Set("retmax", strconv.Itoa(maxResults))

	if params.Offset > 0 {
		q.Set("retstart", strconv.Itoa(params.Offset))
	}

	if params.DateFrom != nil || params.DateTo != nil {
		q.Set("datetype", "pdat")
		if params.DateFrom != nil {
			q.Set("mindate", params.DateFrom.Format("2006/01/02"))
		}
		if params.DateTo != nil {
			q.Set("maxdate", params.DateTo.Format("2006/01/02"))
		}
	}

	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, db, "esearch", u.String())
	if err != nil {
		return nil, err
	}

	var result esearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		c.recordFailure(db, "esearch", "parse")
		return nil, fmt.Errorf("failed to parse esearch response: %w", err)
	}

	if result.ErrorList != nil && len(result.ErrorList.PhraseNotFound) > 0 {
		c.logger.Debug().
			Str("db", db).
			Strs("phrases", result.ErrorList.PhraseNotFound).
			Msg("esearch phrase not found")
		return nil, nil
	}

	c.record(db, "esearch", time.Since(start))
	return result.IDList.IDs, nil
}

// Fetch retrieves the article XML for the given IDs from db, splitting
// the ID list into batches of the configured size. One parsed document
// root is returned per efetch request, in request order.
func (c *Client) Fetch(ctx context.Context, db string, ids []string) ([]*xmltree.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	chunks := batch.Chunk(ids, c.config.FetchBatchSize)
	docs := make([]*xmltree.Node, 0, len(chunks))
	for _, chunk := range chunks {
		doc, err := c.efetch(ctx, db, chunk)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SearchAndFetch runs Search followed by Fetch over the result IDs.
func (c *Client) SearchAndFetch(ctx context.Context, db string, params SearchParams) ([]*xmltree.Node, error) {
	ids, err := c.Search(ctx, db, params)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}
	c.logger.Debug().Str("db", db).Int("ids", len(ids)).Msg("esearch completed")
	return c.Fetch(ctx, db, ids)
}

// efetch retrieves one batch of article XML.
func (c *Client) efetch(ctx context.Context, db string, ids []string) (*xmltree.Node, error) {
	start := time.Now()

	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("db", db)
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, db, "efetch", u.String())
	if err != nil {
		return nil, err
	}

	doc, err := xmltree.Parse(body)
	if err != nil {
		c.recordFailure(db, "efetch", "parse")
		return nil, fmt.Errorf("failed to parse efetch response: %w", err)
	}

	c.record(db, "efetch", time.Since(start))
	return doc, nil
}

// get executes a GET request and returns the response body, mapping
// non-200 statuses to domain errors.
func (c *Client) get(ctx context.Context, db, endpoint, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(db, endpoint, "request")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 100<<20))
	if err != nil {
		c.recordFailure(db, endpoint, "read")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.recordFailure(db, endpoint, strconv.Itoa(resp.StatusCode))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}
	return body, nil
}

func (c *Client) record(db, endpoint string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordEUtilsRequest(db, endpoint, d.Seconds())
	}
}

func (c *Client) recordFailure(db, endpoint, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordEUtilsRequestFailed(db, endpoint, errorType)
	}
}
