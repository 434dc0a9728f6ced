package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

// ErrArticleNotFound is returned by UpdateStatus for an unknown id.
var ErrArticleNotFound = errors.New("article not found")

const defaultListLimit = 50

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ArticleRepository persists accepted articles into Postgres. The unique
// index on url is the authoritative dedup guarantee; Exists is only a
// fast path that saves a detail fetch and a classifier call.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Exists reports whether an article with the given URL is already stored.
func (r *ArticleRepository) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("news_articles").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query article by url: %w", err)
	}

	return true, nil
}

// Insert writes a new pending article. It returns false without error
// when a row with the same URL already exists, which the pipeline treats
// as "already known", not a failure.
func (r *ArticleRepository) Insert(ctx context.Context, article domain.Article) (bool, error) {
	publishedAt := article.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	query, args, err := psql.
		Insert("news_articles").
		Columns("source", "title", "url", "published_date", "content", "summary",
			"category", "relevance_score", "filter_layer", "keywords", "status", "raw_html").
		Values(article.Source, article.Title, article.URL, publishedAt, article.Content,
			article.Summary, article.Category, article.RelevanceScore, article.FilterLayer,
			pq.Array(article.Keywords), domain.StatusPending, article.RawHTML).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert article rows affected: %w", err)
	}

	return affected > 0, nil
}

// List returns stored articles matching the filter, newest publish date first.
func (r *ArticleRepository) List(ctx context.Context, filter ports.ArticleFilter) ([]domain.Article, error) {
	builder := psql.
		Select("id", "source", "title", "url", "published_date", "content", "summary",
			"category", "relevance_score", "filter_layer", "keywords", "status",
			"created_at", "updated_at").
		From("news_articles").
		OrderBy("published_date DESC")

	if filter.Source != "" {
		builder = builder.Where(sq.Eq{"source": filter.Source})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.MinRelevance > 0 {
		builder = builder.Where(sq.GtOrEq{"relevance_score": filter.MinRelevance})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	builder = builder.Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var article domain.Article
		var keywords pq.StringArray
		if err := rows.Scan(
			&article.ID, &article.Source, &article.Title, &article.URL,
			&article.PublishedAt, &article.Content, &article.Summary,
			&article.Category, &article.RelevanceScore, &article.FilterLayer,
			&keywords, &article.Status, &article.CreatedAt, &article.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		article.Keywords = keywords
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// UpdateStatus moves exactly one article into an operator-assigned state.
func (r *ArticleRepository) UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus) error {
	if !domain.ValidReviewStatus(status) {
		return fmt.Errorf("invalid review status %q", status)
	}

	query, args, err := psql.
		Update("news_articles").
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("status update rows affected: %w", err)
	}
	if affected == 0 {
		return ErrArticleNotFound
	}

	return nil
}
