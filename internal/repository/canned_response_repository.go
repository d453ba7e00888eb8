package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskline/helpdesk/internal/domain"
)

// CannedResponseRepository persists staff reply templates.
type CannedResponseRepository interface {
	Create(ctx context.Context, resp *domain.CannedResponse) error
	Update(ctx context.Context, resp *domain.CannedResponse) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CannedResponse, error)
	List(ctx context.Context) ([]domain.CannedResponse, error)
}

type cannedResponseRepository struct {
	pool *pgxpool.Pool
}

// NewCannedResponseRepository instantiates repository.
func NewCannedResponseRepository(pool *pgxpool.Pool) CannedResponseRepository {
	return &cannedResponseRepository{pool: pool}
}

func (r *cannedResponseRepository) Create(ctx context.Context, resp *domain.CannedResponse) error {
	resp.CreatedAt = stamp(resp.CreatedAt)
	resp.UpdatedAt = resp.CreatedAt
	const query = `
        INSERT INTO canned_responses (title, content, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query, resp.Title, resp.Content, resp.CreatedBy, resp.CreatedAt, resp.UpdatedAt).Scan(&resp.ID)
}

func (r *cannedResponseRepository) Update(ctx context.Context, resp *domain.CannedResponse) error {
	resp.UpdatedAt = stamp(resp.UpdatedAt)
	const query = `UPDATE canned_responses SET title=$1, content=$2, updated_at=$3 WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, resp.Title, resp.Content, resp.UpdatedAt, resp.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *cannedResponseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM canned_responses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *cannedResponseRepository) GetByID(ctx context.Context, id string) (*domain.CannedResponse, error) {
	const query = `
        SELECT id, title, content, created_by, created_at, updated_at
        FROM canned_responses WHERE id=$1`
	var c domain.CannedResponse
	if err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.Content, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cannedResponseRepository) List(ctx context.Context) ([]domain.CannedResponse, error) {
	const query = `
        SELECT id, title, content, created_by, created_at, updated_at
        FROM canned_responses ORDER BY title ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CannedResponse
	for rows.Next() {
		var c domain.CannedResponse
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
