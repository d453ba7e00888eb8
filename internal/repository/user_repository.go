package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskline/helpdesk/internal/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role   *domain.Role
	Search string
	Limit  int
	Offset int
}

// UserRepository defines persistence access for the role directory.
type UserRepository interface {
	// Create inserts the profile and, when cred is not nil, its login
	// credential in the same transaction.
	Create(ctx context.Context, user *domain.User, cred *domain.Credential) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

// CredentialRepository reads login material.
type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User, cred *domain.Credential) error {
	user.CreatedAt = stamp(user.CreatedAt)
	user.UpdatedAt = user.CreatedAt

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUser = `
        INSERT INTO users (role, full_name, avatar_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	if err := tx.QueryRow(ctx, insertUser,
		user.Role,
		user.FullName,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return err
	}

	if cred != nil {
		cred.UserID = user.ID
		cred.CreatedAt = user.CreatedAt
		const insertCred = `
            INSERT INTO user_credentials (user_id, email, password_hash, created_at)
            VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insertCred, cred.UserID, cred.Email, cred.PasswordHash, cred.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = stamp(user.UpdatedAt)
	const query = `
        UPDATE users SET role=$1, full_name=$2, avatar_url=$3, updated_at=$4
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		user.Role,
		user.FullName,
		user.AvatarURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, role, full_name, avatar_url, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Role,
		&user.FullName,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	var where whereBuilder
	if filter.Role != nil {
		where.add("role=$%[1]d", *filter.Role)
	}
	if filter.Search != "" {
		where.add(`LOWER(full_name) LIKE $%[1]d ESCAPE '\'`, searchPattern(filter.Search))
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
        SELECT id, role, full_name, avatar_url, created_at, updated_at
        FROM users%s ORDER BY full_name ASC, id ASC LIMIT %d OFFSET %d`, where.sql(), limit, offset)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Role,
			&user.FullName,
			&user.AvatarURL,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	const query = `
        SELECT user_id, email, password_hash, created_at
        FROM user_credentials WHERE email=$1`

	var cred domain.Credential
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&cred.UserID,
		&cred.Email,
		&cred.PasswordHash,
		&cred.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &cred, nil
}
