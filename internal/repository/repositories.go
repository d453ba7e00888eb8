package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every store the services depend on.
type Repositories struct {
	Users           UserRepository
	Credentials     CredentialRepository
	Categories      CategoryRepository
	Tickets         TicketRepository
	Comments        CommentRepository
	Articles        ArticleRepository
	CannedResponses CannedResponseRepository
}

// NewPostgresRepositories wires the pgx-backed implementations.
func NewPostgresRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(pool),
		Credentials:     NewCredentialRepository(pool),
		Categories:      NewCategoryRepository(pool),
		Tickets:         NewTicketRepository(pool),
		Comments:        NewCommentRepository(pool),
		Articles:        NewArticleRepository(pool),
		CannedResponses: NewCannedResponseRepository(pool),
	}
}
