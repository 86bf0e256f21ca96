package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/article-extraction-service/internal/domain"
)

// Helper to create a valid stored article for testing.
func newTestArticle() *domain.StoredArticle {
	now := time.Now().UTC()
	pubDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return &domain.StoredArticle{
		ID:              uuid.New(),
		ArticleID:       "12345678",
		Schema:          domain.SchemaPubMed,
		Title:           "Deep learning for protein folding",
		Abstract:        "We describe a method.",
		Keywords:        []string{"deep learning", "proteins"},
		Journal:         "Nature Methods",
		PublicationDate: &pubDate,
		Authors:         json.RawMessage(`[{"lastname":"Doe","firstname":"John","initials":"J","affiliation":"Test University"}]`),
		Copyrights:      "(c) 2024 The Authors",
		DOI:             "10.1234/test",
		RawXML:          "<PubmedArticle/>",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func articleColumns() []string {
	return []string{
		"id", "article_id", "schema", "title", "abstract", "keywords",
		"journal", "publication_date", "authors", "sections",
		"copyrights", "doi", "raw_xml", "created_at", "updated_at",
	}
}

func articleRow(a *domain.StoredArticle) *pgxmock.Rows {
	keywordsJSON, _ := json.Marshal(a.Keywords)
	var sectionsJSON []byte
	if a.Sections != nil {
		sectionsJSON, _ = json.Marshal(a.Sections)
	}
	return pgxmock.NewRows(articleColumns()).AddRow(
		a.ID, a.ArticleID, a.Schema, a.Title, a.Abstract, keywordsJSON,
		a.Journal, a.PublicationDate, []byte(a.Authors), sectionsJSON,
		a.Copyrights, a.DOI, a.RawXML, a.CreatedAt, a.UpdatedAt,
	)
}

func TestNewPgArticleRepository(t *testing.T) {
	t.Run("creates repository with mock db", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestPgArticleRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts article successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()

		mock.ExpectQuery("INSERT INTO articles").
			WithArgs(
				pgxmock.AnyArg(), article.ArticleID, article.Schema,
				article.Title, article.Abstract, pgxmock.AnyArg(),
				article.Journal, article.PublicationDate, pgxmock.AnyArg(), pgxmock.AnyArg(),
				article.Copyrights, article.DOI, article.RawXML,
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(article.ID, article.CreatedAt, article.UpdatedAt))

		result, err := repo.Upsert(ctx, article)
		require.NoError(t, err)
		assert.Equal(t, article.ID, result.ID)
		assert.Equal(t, article.ArticleID, result.ArticleID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigns an ID when missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()
		article.ID = uuid.Nil
		generated := uuid.New()

		mock.ExpectQuery("INSERT INTO articles").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(generated, article.CreatedAt, article.UpdatedAt))

		result, err := repo.Upsert(ctx, article)
		require.NoError(t, err)
		assert.Equal(t, generated, result.ID)
	})

	t.Run("returns validation error for nil article", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		result, err := repo.Upsert(ctx, nil)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "article", validationErr.Field)
	})

	t.Run("returns validation error for missing article_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()
		article.ArticleID = ""

		result, err := repo.Upsert(ctx, article)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "article_id", validationErr.Field)
	})

	t.Run("returns validation error for missing schema", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()
		article.Schema = ""

		result, err := repo.Upsert(ctx, article)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "schema", validationErr.Field)
	})
}

func TestPgArticleRepository_BulkUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts multiple articles in one batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		first := newTestArticle()
		second := newTestArticle()
		second.ArticleID = "87654321"

		batch := mock.ExpectBatch()
		batch.ExpectQuery("INSERT INTO articles").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(first.ID, first.CreatedAt, first.UpdatedAt))
		batch.ExpectQuery("INSERT INTO articles").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(second.ID, second.CreatedAt, second.UpdatedAt))

		results, err := repo.BulkUpsert(ctx, []*domain.StoredArticle{first, second})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "12345678", results[0].ArticleID)
		assert.Equal(t, "87654321", results[1].ArticleID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input returns empty result without queries", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		results, err := repo.BulkUpsert(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects batch containing invalid article", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		bad := newTestArticle()
		bad.ArticleID = ""

		results, err := repo.BulkUpsert(ctx, []*domain.StoredArticle{newTestArticle(), bad})
		assert.Nil(t, results)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgArticleRepository_GetByArticleID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns article when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()

		mock.ExpectQuery("SELECT .* FROM articles").
			WithArgs(article.Schema, article.ArticleID).
			WillReturnRows(articleRow(article))

		result, err := repo.GetByArticleID(ctx, article.Schema, article.ArticleID)
		require.NoError(t, err)
		assert.Equal(t, article.ID, result.ID)
		assert.Equal(t, article.Title, result.Title)
		assert.Equal(t, []string{"deep learning", "proteins"}, result.Keywords)
		assert.JSONEq(t, string(article.Authors), string(result.Authors))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("restores sections for full-text articles", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()
		article.Schema = domain.SchemaPMC
		article.Sections = map[string]string{
			"body":         "Introduction: text\n\nMethods: text",
			"introduction": "Introduction: text\n\n",
		}

		mock.ExpectQuery("SELECT .* FROM articles").
			WithArgs(article.Schema, article.ArticleID).
			WillReturnRows(articleRow(article))

		result, err := repo.GetByArticleID(ctx, article.Schema, article.ArticleID)
		require.NoError(t, err)
		assert.Equal(t, article.Sections, result.Sections)
	})

	t.Run("returns validation error for empty article_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		result, err := repo.GetByArticleID(ctx, domain.SchemaPubMed, "")

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "article_id", validationErr.Field)
	})

	t.Run("returns not found error when not exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)

		mock.ExpectQuery("SELECT .* FROM articles").
			WithArgs(domain.SchemaPubMed, "999").
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.GetByArticleID(ctx, domain.SchemaPubMed, "999")
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgArticleRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists articles with total count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		article := newTestArticle()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM articles").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT .* FROM articles").
			WithArgs(100, 0).
			WillReturnRows(articleRow(article))

		articles, total, err := repo.List(ctx, ArticleFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, articles, 1)
		assert.Equal(t, article.ArticleID, articles[0].ArticleID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by schema", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)
		schema := domain.SchemaPMC

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM articles").
			WithArgs(schema).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery("SELECT .* FROM articles").
			WithArgs(schema, 100, 0).
			WillReturnRows(pgxmock.NewRows(articleColumns()))

		articles, total, err := repo.List(ctx, ArticleFilter{Schema: &schema})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, articles)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clamps limit to maximum", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgArticleRepository(mock)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM articles").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery("SELECT .* FROM articles").
			WithArgs(maxFilterLimit, 0).
			WillReturnRows(pgxmock.NewRows(articleColumns()))

		_, _, err = repo.List(ctx, ArticleFilter{Limit: 5000})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
