package domain

import "time"

// Category groups tickets and knowledge base articles.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryRef is the joined view of a referenced category.
type CategoryRef struct {
	ID   string
	Name string
}
