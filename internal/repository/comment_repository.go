package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskline/helpdesk/internal/domain"
)

// CommentRepository manages ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = stamp(comment.CreatedAt)
	comment.UpdatedAt = comment.CreatedAt
	const query = `
        INSERT INTO ticket_comments (ticket_id, content, internal_note, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.Content,
		comment.InternalNote,
		comment.CreatedBy,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID)
}

// ListByTicket returns the thread oldest first, internal notes included.
func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT tc.id, tc.ticket_id, tc.content, tc.internal_note, tc.created_by,
               tc.created_at, tc.updated_at, u.full_name
        FROM ticket_comments tc
        LEFT JOIN users u ON u.id = tc.created_by
        WHERE tc.ticket_id=$1 ORDER BY tc.created_at ASC, tc.id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var (
			c          domain.Comment
			authorName *string
		)
		if err := rows.Scan(
			&c.ID,
			&c.TicketID,
			&c.Content,
			&c.InternalNote,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
			&authorName,
		); err != nil {
			return nil, err
		}
		if authorName != nil {
			c.Author = &domain.UserRef{ID: c.CreatedBy, FullName: *authorName}
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
