package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskline/helpdesk/internal/domain"
)

// Orderable ticket columns.
const (
	TicketOrderCreatedAt = "created_at"
	TicketOrderUpdatedAt = "updated_at"
	TicketOrderPriority  = "priority"
	TicketOrderStatus    = "status"
)

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CategoryID  *string
	AssignedTo  *string
	CreatedBy   *string
	SearchTerm  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OrderBy     string
	Descending  bool
	Limit       int
	Offset      int
}

// TicketStats fingerprints the tickets created since a point in time along
// with the joined rows their names come from. A category delete shows up as a
// lower Categories count.
type TicketStats struct {
	Count             int
	LastUpdated       time.Time
	Categories        int
	CategoriesUpdated time.Time
	UsersUpdated      time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error)
	Stats(ctx context.Context, since time.Time) (TicketStats, error)
}

// ValidTicketOrder reports whether column can be used as an ORDER BY key.
func ValidTicketOrder(column string) bool {
	_, ok := ticketOrderColumns[column]
	return ok
}

var ticketOrderColumns = map[string]string{
	TicketOrderCreatedAt: "t.created_at",
	TicketOrderUpdatedAt: "t.updated_at",
	TicketOrderStatus: "CASE t.status WHEN 'open' THEN 0 WHEN 'pending' THEN 1 " +
		"WHEN 'resolved' THEN 2 ELSE 3 END",
	TicketOrderPriority: "CASE t.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 " +
		"WHEN 'high' THEN 2 ELSE 3 END",
}

const ticketSelect = `
        SELECT t.id, t.subject, t.description, t.status, t.priority, t.category_id,
               t.created_by, t.assigned_to, t.sla_due_at, t.created_at, t.updated_at,
               c.name, cu.full_name, au.full_name
        FROM tickets t
        LEFT JOIN categories c ON c.id = t.category_id
        LEFT JOIN users cu ON cu.id = t.created_by
        LEFT JOIN users au ON au.id = t.assigned_to`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.CreatedAt = stamp(ticket.CreatedAt)
	ticket.UpdatedAt = ticket.CreatedAt
	const query = `
        INSERT INTO tickets (subject, description, status, priority, category_id, created_by,
                             assigned_to, sla_due_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.SLADueAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
}

// Update writes every mutable column. created_by is never written.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	ticket.UpdatedAt = stamp(ticket.UpdatedAt)
	const query = `
        UPDATE tickets SET subject=$1, description=$2, status=$3, priority=$4, category_id=$5,
            assigned_to=$6, sla_due_at=$7, updated_at=$8
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.AssignedTo,
		ticket.SLADueAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where := ticketWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM tickets t` + where.sql()
	if err := r.pool.QueryRow(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderExpr, ok := ticketOrderColumns[filter.OrderBy]
	if !ok {
		orderExpr = ticketOrderColumns[TicketOrderCreatedAt]
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`%s%s ORDER BY %s %s, t.id ASC LIMIT %d OFFSET %d`,
		ticketSelect, where.sql(), orderExpr, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.created_at >= $1 ORDER BY t.created_at ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Stats(ctx context.Context, since time.Time) (TicketStats, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM tickets WHERE created_at >= $1),
		(SELECT MAX(updated_at) FROM tickets WHERE created_at >= $1),
		(SELECT COUNT(*) FROM categories),
		(SELECT MAX(updated_at) FROM categories),
		(SELECT MAX(updated_at) FROM users)`
	var (
		stats                        TicketStats
		last, categories, usersStamp *time.Time
	)
	if err := r.pool.QueryRow(ctx, query, since).Scan(&stats.Count, &last, &stats.Categories, &categories, &usersStamp); err != nil {
		return TicketStats{}, err
	}
	if last != nil {
		stats.LastUpdated = *last
	}
	if categories != nil {
		stats.CategoriesUpdated = *categories
	}
	if usersStamp != nil {
		stats.UsersUpdated = *usersStamp
	}
	return stats, nil
}

func ticketWhere(filter TicketFilter) *whereBuilder {
	where := &whereBuilder{}
	statuses := make([]any, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = s
	}
	where.addIn("t.status", statuses)

	priorities := make([]any, len(filter.Priorities))
	for i, p := range filter.Priorities {
		priorities[i] = p
	}
	where.addIn("t.priority", priorities)

	if filter.CategoryID != nil {
		where.add("t.category_id=$%[1]d", *filter.CategoryID)
	}
	if filter.AssignedTo != nil {
		where.add("t.assigned_to=$%[1]d", *filter.AssignedTo)
	}
	if filter.CreatedBy != nil {
		where.add("t.created_by=$%[1]d", *filter.CreatedBy)
	}
	if filter.CreatedFrom != nil {
		where.add("t.created_at >= $%[1]d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		where.add("t.created_at <= $%[1]d", *filter.CreatedTo)
	}
	if strings.TrimSpace(filter.SearchTerm) != "" {
		where.add(`(LOWER(t.subject) LIKE $%[1]d ESCAPE '\' OR LOWER(t.description) LIKE $%[1]d ESCAPE '\')`, searchPattern(filter.SearchTerm))
	}
	return where
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket       domain.Ticket
			categoryName *string
			creatorName  *string
			assigneeName *string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CategoryID,
			&ticket.CreatedBy,
			&ticket.AssignedTo,
			&ticket.SLADueAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&categoryName,
			&creatorName,
			&assigneeName,
		); err != nil {
			return nil, err
		}
		if ticket.CategoryID != nil && categoryName != nil {
			ticket.Category = &domain.CategoryRef{ID: *ticket.CategoryID, Name: *categoryName}
		}
		if creatorName != nil {
			ticket.Creator = &domain.UserRef{ID: ticket.CreatedBy, FullName: *creatorName}
		}
		if ticket.AssignedTo != nil && assigneeName != nil {
			ticket.Assignee = &domain.UserRef{ID: *ticket.AssignedTo, FullName: *assigneeName}
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
