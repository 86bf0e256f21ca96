package repository

import (
	"context"

	"github.com/helixir/article-extraction-service/internal/domain"
)

// ArticleRepository handles persistence of extracted article records.
// Records from both source schemas share one table, keyed by the
// (schema, article_id) pair.
type ArticleRepository interface {
	// Upsert inserts a new article or updates the existing row matching
	// (schema, article_id). Database-generated fields (ID, CreatedAt,
	// UpdatedAt) are populated on the passed article.
	// Returns domain.ErrInvalidInput if the article has no article ID.
	Upsert(ctx context.Context, article *domain.StoredArticle) (*domain.StoredArticle, error)

	// BulkUpsert upserts multiple articles in a single network roundtrip.
	// Articles are matched by (schema, article_id).
	//
	// Return contract:
	//   - Returned articles are in the same order as the input slice.
	//   - Database-generated fields are populated on all returned articles.
	BulkUpsert(ctx context.Context, articles []*domain.StoredArticle) ([]*domain.StoredArticle, error)

	// GetByArticleID retrieves an article by schema and source identifier.
	// Returns domain.ErrNotFound if no matching article exists.
	GetByArticleID(ctx context.Context, schema domain.Schema, articleID string) (*domain.StoredArticle, error)

	// List retrieves articles matching the filter criteria.
	// Returns the matching articles and total count for pagination.
	// The total count reflects all matching records regardless of limit/offset.
	List(ctx context.Context, filter ArticleFilter) ([]*domain.StoredArticle, int64, error)
}

// ArticleFilter specifies criteria for listing articles.
type ArticleFilter struct {
	// Schema filters to articles from one source schema (optional).
	Schema *domain.Schema

	// Journal filters to articles published in a specific journal (optional).
	Journal *string

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks if the filter has valid values and sets defaults.
func (f *ArticleFilter) Validate() error {
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
