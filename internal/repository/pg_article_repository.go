package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helixir/article-extraction-service/internal/domain"
)

// Compile-time interface verification.
var _ ArticleRepository = (*PgArticleRepository)(nil)

// PgArticleRepository is a PostgreSQL implementation of ArticleRepository.
type PgArticleRepository struct {
	db DBTX
}

// NewPgArticleRepository creates a new PostgreSQL article repository.
func NewPgArticleRepository(db DBTX) *PgArticleRepository {
	return &PgArticleRepository{db: db}
}

const upsertArticleQuery = `
	INSERT INTO articles (
		id, article_id, schema, title, abstract, keywords,
		journal, publication_date, authors, sections,
		copyrights, doi, raw_xml, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)
	ON CONFLICT (schema, article_id) DO UPDATE SET
		title = EXCLUDED.title,
		abstract = EXCLUDED.abstract,
		keywords = EXCLUDED.keywords,
		journal = EXCLUDED.journal,
		publication_date = COALESCE(EXCLUDED.publication_date, articles.publication_date),
		authors = EXCLUDED.authors,
		sections = EXCLUDED.sections,
		copyrights = EXCLUDED.copyrights,
		doi = EXCLUDED.doi,
		raw_xml = EXCLUDED.raw_xml,
		updated_at = NOW()
	RETURNING id, created_at, updated_at`

// Upsert inserts a new article or updates the existing row matching
// (schema, article_id).
func (r *PgArticleRepository) Upsert(ctx context.Context, article *domain.StoredArticle) (*domain.StoredArticle, error) {
	args, err := upsertArgs(article)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, upsertArticleQuery, args...).
		Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert article: %w", err)
	}

	return article, nil
}

// BulkUpsert upserts multiple articles using pgx.Batch to send all
// statements in a single network roundtrip.
func (r *PgArticleRepository) BulkUpsert(ctx context.Context, articles []*domain.StoredArticle) ([]*domain.StoredArticle, error) {
	if len(articles) == 0 {
		return []*domain.StoredArticle{}, nil
	}

	batch := &pgx.Batch{}
	for i, article := range articles {
		args, err := upsertArgs(article)
		if err != nil {
			return nil, fmt.Errorf("article at index %d: %w", i, err)
		}
		batch.Queue(upsertArticleQuery, args...)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	results := make([]*domain.StoredArticle, len(articles))
	for i, article := range articles {
		err := br.QueryRow().Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert article at index %d: %w", i, err)
		}
		results[i] = article
	}

	return results, nil
}

// GetByArticleID retrieves an article by schema and source identifier.
func (r *PgArticleRepository) GetByArticleID(ctx context.Context, schema domain.Schema, articleID string) (*domain.StoredArticle, error) {
	if articleID == "" {
		return nil, domain.NewValidationError("article_id", "article ID is required")
	}

	query := `
		SELECT id, article_id, schema, title, abstract, keywords,
			journal, publication_date, authors, sections,
			copyrights, doi, raw_xml, created_at, updated_at
		FROM articles
		WHERE schema = $1 AND article_id = $2`

	row := r.db.QueryRow(ctx, query, schema, articleID)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("article", fmt.Sprintf("%s:%s", schema, articleID))
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

// List retrieves articles matching the filter criteria.
func (r *PgArticleRepository) List(ctx context.Context, filter ArticleFilter) ([]*domain.StoredArticle, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Schema != nil {
		conditions = append(conditions, fmt.Sprintf("a.schema = $%d", argIndex))
		args = append(args, *filter.Schema)
		argIndex++
	}

	if filter.Journal != nil {
		conditions = append(conditions, fmt.Sprintf("a.journal = $%d", argIndex))
		args = append(args, *filter.Journal)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM articles a %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT a.id, a.article_id, a.schema, a.title, a.abstract, a.keywords,
			a.journal, a.publication_date, a.authors, a.sections,
			a.copyrights, a.doi, a.raw_xml, a.created_at, a.updated_at
		FROM articles a
		%s
		ORDER BY a.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*domain.StoredArticle, 0, filter.Limit)
	for rows.Next() {
		article, err := scanArticleFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating articles: %w", err)
	}

	return articles, totalCount, nil
}

// upsertArgs validates the article and builds the argument list for
// upsertArticleQuery, assigning a fresh ID when one is missing.
func upsertArgs(article *domain.StoredArticle) ([]interface{}, error) {
	if article == nil {
		return nil, domain.NewValidationError("article", "article cannot be nil")
	}
	if article.ArticleID == "" {
		return nil, domain.NewValidationError("article_id", "article ID is required")
	}
	if article.Schema == "" {
		return nil, domain.NewValidationError("schema", "schema is required")
	}

	keywordsJSON, err := json.Marshal(article.Keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}

	var sectionsJSON []byte
	if article.Sections != nil {
		sectionsJSON, err = json.Marshal(article.Sections)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sections: %w", err)
		}
	}

	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}

	now := time.Now().UTC()
	return []interface{}{
		article.ID,
		article.ArticleID,
		article.Schema,
		article.Title,
		article.Abstract,
		keywordsJSON,
		article.Journal,
		article.PublicationDate,
		[]byte(article.Authors),
		sectionsJSON,
		article.Copyrights,
		article.DOI,
		article.RawXML,
		now,
		now,
	}, nil
}

// articleScanDest holds the destination pointers for scanning an article row.
type articleScanDest struct {
	article      domain.StoredArticle
	keywordsJSON []byte
	authorsJSON  []byte
	sectionsJSON []byte
}

// destinations returns the slice of pointers for Scan operations.
func (d *articleScanDest) destinations() []interface{} {
	return []interface{}{
		&d.article.ID, &d.article.ArticleID, &d.article.Schema,
		&d.article.Title, &d.article.Abstract, &d.keywordsJSON,
		&d.article.Journal, &d.article.PublicationDate, &d.authorsJSON, &d.sectionsJSON,
		&d.article.Copyrights, &d.article.DOI, &d.article.RawXML,
		&d.article.CreatedAt, &d.article.UpdatedAt,
	}
}

// finalize performs post-scan processing: unmarshals JSON columns.
func (d *articleScanDest) finalize() (*domain.StoredArticle, error) {
	if len(d.keywordsJSON) > 0 {
		if err := json.Unmarshal(d.keywordsJSON, &d.article.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}

	if len(d.authorsJSON) > 0 {
		d.article.Authors = json.RawMessage(d.authorsJSON)
	}

	if len(d.sectionsJSON) > 0 {
		if err := json.Unmarshal(d.sectionsJSON, &d.article.Sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
		}
	}

	return &d.article, nil
}

// scanArticle scans a single row into a StoredArticle.
func scanArticle(row pgx.Row) (*domain.StoredArticle, error) {
	var dest articleScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanArticleFromRows scans the current row from pgx.Rows into a StoredArticle.
func scanArticleFromRows(rows pgx.Rows) (*domain.StoredArticle, error) {
	var dest articleScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
