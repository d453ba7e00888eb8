package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskline/helpdesk/internal/domain"
)

// ArticleFilter narrows knowledge base listings.
type ArticleFilter struct {
	Status     *domain.ArticleStatus
	CategoryID *string
	SearchTerm string
	Limit      int
	Offset     int
}

// ArticleRepository persists knowledge base articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]domain.Article, error)
}

const articleSelect = `
        SELECT a.id, a.title, a.content, a.category_id, a.status, a.author_id, a.approver_id,
               a.created_at, a.updated_at, c.name
        FROM knowledge_base a
        LEFT JOIN categories c ON c.id = a.category_id`

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository instantiates repository.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	article.CreatedAt = stamp(article.CreatedAt)
	article.UpdatedAt = article.CreatedAt
	const query = `
        INSERT INTO knowledge_base (title, content, category_id, status, author_id, approver_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		article.Title,
		article.Content,
		article.CategoryID,
		article.Status,
		article.AuthorID,
		article.ApproverID,
		article.CreatedAt,
		article.UpdatedAt,
	).Scan(&article.ID)
}

func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	article.UpdatedAt = stamp(article.UpdatedAt)
	const query = `
        UPDATE knowledge_base SET title=$1, content=$2, category_id=$3, status=$4, approver_id=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		article.Title,
		article.Content,
		article.CategoryID,
		article.Status,
		article.ApproverID,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM knowledge_base WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	rows, err := r.pool.Query(ctx, articleSelect+` WHERE a.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &articles[0], nil
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter) ([]domain.Article, error) {
	var where whereBuilder
	if filter.Status != nil {
		where.add("a.status=$%[1]d", *filter.Status)
	}
	if filter.CategoryID != nil {
		where.add("a.category_id=$%[1]d", *filter.CategoryID)
	}
	if filter.SearchTerm != "" {
		where.add(`(LOWER(a.title) LIKE $%[1]d ESCAPE '\' OR LOWER(a.content) LIKE $%[1]d ESCAPE '\')`, searchPattern(filter.SearchTerm))
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`%s%s ORDER BY a.updated_at DESC, a.id ASC LIMIT %d OFFSET %d`,
		articleSelect, where.sql(), limit, offset)
	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows pgx.Rows) ([]domain.Article, error) {
	var result []domain.Article
	for rows.Next() {
		var (
			a            domain.Article
			categoryName *string
		)
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Content,
			&a.CategoryID,
			&a.Status,
			&a.AuthorID,
			&a.ApproverID,
			&a.CreatedAt,
			&a.UpdatedAt,
			&categoryName,
		); err != nil {
			return nil, err
		}
		if a.CategoryID != nil && categoryName != nil {
			a.Category = &domain.CategoryRef{ID: *a.CategoryID, Name: *categoryName}
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
