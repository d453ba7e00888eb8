package domain

import "time"

// ArticleStatus enumerates knowledge base review states.
type ArticleStatus string

const (
	ArticleStatusDraft         ArticleStatus = "draft"
	ArticleStatusPendingReview ArticleStatus = "pending_review"
	ArticleStatusPublished     ArticleStatus = "published"
)

// Valid reports whether s is a known article status.
func (s ArticleStatus) Valid() bool {
	switch s {
	case ArticleStatusDraft, ArticleStatusPendingReview, ArticleStatusPublished:
		return true
	}
	return false
}

// Article is a knowledge base entry.
type Article struct {
	ID         string
	Title      string
	Content    string
	CategoryID *string
	Status     ArticleStatus
	AuthorID   string
	ApproverID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Category *CategoryRef
}
