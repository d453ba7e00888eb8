package dto

import (
	"time"

	"github.com/deskline/helpdesk/internal/domain"
)

// CategoryRequest is the create/update payload for categories.
type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArticleRequest is the create/update payload for articles. A null
// category_id clears the category on update.
type ArticleRequest struct {
	Title      *string          `json:"title"`
	Content    *string          `json:"content"`
	CategoryID Optional[string] `json:"category_id"`
}

// UpdateArticleStatusRequest payload.
type UpdateArticleStatusRequest struct {
	Status domain.ArticleStatus `json:"status"`
}

// ArticleResponse represents a knowledge base entry.
type ArticleResponse struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Content    string               `json:"content"`
	CategoryID *string              `json:"category_id"`
	Category   *RefResponse         `json:"category"`
	Status     domain.ArticleStatus `json:"status"`
	AuthorID   string               `json:"author_id"`
	ApproverID *string              `json:"approver_id"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// CannedResponseRequest is the create/update payload for reply templates.
type CannedResponseRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// CannedResponseResponse represents a reply template.
type CannedResponseResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
