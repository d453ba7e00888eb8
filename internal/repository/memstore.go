package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deskline/helpdesk/internal/domain"
)

// Memory is a process-local store behind the same repository interfaces as
// the Postgres implementation. Misses return pgx.ErrNoRows and constraint
// violations return *pgconn.PgError so callers classify both the same way.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	creds      map[string]domain.Credential
	categories map[string]domain.Category
	tickets    map[string]domain.Ticket
	comments   map[string]domain.Comment
	articles   map[string]domain.Article
	canned     map[string]domain.CannedResponse
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:      map[string]domain.User{},
		creds:      map[string]domain.Credential{},
		categories: map[string]domain.Category{},
		tickets:    map[string]domain.Ticket{},
		comments:   map[string]domain.Comment{},
		articles:   map[string]domain.Article{},
		canned:     map[string]domain.CannedResponse{},
	}
}

// Repositories exposes the store through the repository interfaces.
func (m *Memory) Repositories() *Repositories {
	return &Repositories{
		Users:           memUsers{m},
		Credentials:     memCredentials{m},
		Categories:      memCategories{m},
		Tickets:         memTickets{m},
		Comments:        memComments{m},
		Articles:        memArticles{m},
		CannedResponses: memCanned{m},
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint, Message: "insert or update violates foreign key constraint"}
}

func (m *Memory) categoryExists(id *string) bool {
	if id == nil {
		return true
	}
	_, ok := m.categories[*id]
	return ok
}

func (m *Memory) userExists(id *string) bool {
	if id == nil {
		return true
	}
	_, ok := m.users[*id]
	return ok
}

func (m *Memory) hydrateTicket(t domain.Ticket) domain.Ticket {
	t.Category, t.Creator, t.Assignee = nil, nil, nil
	if t.CategoryID != nil {
		if c, ok := m.categories[*t.CategoryID]; ok {
			t.Category = &domain.CategoryRef{ID: c.ID, Name: c.Name}
		}
	}
	if u, ok := m.users[t.CreatedBy]; ok {
		t.Creator = &domain.UserRef{ID: u.ID, FullName: u.FullName}
	}
	if t.AssignedTo != nil {
		if u, ok := m.users[*t.AssignedTo]; ok {
			t.Assignee = &domain.UserRef{ID: u.ID, FullName: u.FullName}
		}
	}
	return t
}

func (m *Memory) hydrateArticle(a domain.Article) domain.Article {
	a.Category = nil
	if a.CategoryID != nil {
		if c, ok := m.categories[*a.CategoryID]; ok {
			a.Category = &domain.CategoryRef{ID: c.ID, Name: c.Name}
		}
	}
	return a
}

func paginate[T any](items []T, limit, offset int) []T {
	limit, offset = pageBounds(limit, offset)
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func containsFold(haystack, term string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(term)))
}

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, user *domain.User, cred *domain.Credential) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if cred != nil {
		if _, exists := r.m.creds[cred.Email]; exists {
			return uniqueViolation("user_credentials_email_key")
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = stamp(user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	r.m.users[user.ID] = *user

	if cred != nil {
		cred.UserID = user.ID
		cred.CreatedAt = user.CreatedAt
		r.m.creds[cred.Email] = *cred
	}
	return nil
}

func (r memUsers) Update(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = stamp(user.UpdatedAt)
	r.m.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r memUsers) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var result []domain.User
	for _, u := range r.m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Search != "" && !containsFold(u.FullName, filter.Search) {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FullName != result[j].FullName {
			return result[i].FullName < result[j].FullName
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

type memCredentials struct{ m *Memory }

func (r memCredentials) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.creds[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

type memCategories struct{ m *Memory }

func (r memCategories) Create(_ context.Context, category *domain.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.CreatedAt = stamp(category.CreatedAt)
	category.UpdatedAt = category.CreatedAt
	r.m.categories[category.ID] = *category
	return nil
}

func (r memCategories) Update(_ context.Context, category *domain.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.categories[category.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = stamp(category.UpdatedAt)
	r.m.categories[category.ID] = *category
	return nil
}

// Delete detaches tickets and articles from the category, like ON DELETE SET NULL.
func (r memCategories) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.m.categories, id)
	for key, t := range r.m.tickets {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			r.m.tickets[key] = t
		}
	}
	for key, a := range r.m.articles {
		if a.CategoryID != nil && *a.CategoryID == id {
			a.CategoryID = nil
			r.m.articles[key] = a
		}
	}
	return nil
}

func (r memCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memCategories) List(_ context.Context) ([]domain.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	result := make([]domain.Category, 0, len(r.m.categories))
	for _, c := range r.m.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type memTickets struct{ m *Memory }

func (r memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if !r.m.userExists(&ticket.CreatedBy) {
		return foreignKeyViolation("tickets_created_by_fkey")
	}
	if !r.m.userExists(ticket.AssignedTo) {
		return foreignKeyViolation("tickets_assigned_to_fkey")
	}
	if !r.m.categoryExists(ticket.CategoryID) {
		return foreignKeyViolation("tickets_category_id_fkey")
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.CreatedAt = stamp(ticket.CreatedAt)
	ticket.UpdatedAt = ticket.CreatedAt
	r.m.tickets[ticket.ID] = *ticket
	return nil
}

func (r memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !r.m.userExists(ticket.AssignedTo) {
		return foreignKeyViolation("tickets_assigned_to_fkey")
	}
	if !r.m.categoryExists(ticket.CategoryID) {
		return foreignKeyViolation("tickets_category_id_fkey")
	}
	ticket.CreatedBy = existing.CreatedBy
	ticket.CreatedAt = existing.CreatedAt
	ticket.UpdatedAt = stamp(ticket.UpdatedAt)
	r.m.tickets[ticket.ID] = *ticket
	return nil
}

// Delete removes the ticket and its comments, like ON DELETE CASCADE.
func (r memTickets) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.m.tickets, id)
	for key, c := range r.m.comments {
		if c.TicketID == id {
			delete(r.m.comments, key)
		}
	}
	return nil
}

func (r memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t = r.m.hydrateTicket(t)
	return &t, nil
}

func (r memTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var matched []domain.Ticket
	for _, t := range r.m.tickets {
		if matchTicket(t, filter) {
			matched = append(matched, r.m.hydrateTicket(t))
		}
	}
	sortTickets(matched, filter.OrderBy, filter.Descending)
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r memTickets) ListCreatedSince(_ context.Context, since time.Time) ([]domain.Ticket, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var result []domain.Ticket
	for _, t := range r.m.tickets {
		if !t.CreatedAt.Before(since) {
			result = append(result, r.m.hydrateTicket(t))
		}
	}
	sortTickets(result, TicketOrderCreatedAt, false)
	return result, nil
}

func (r memTickets) Stats(_ context.Context, since time.Time) (TicketStats, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var stats TicketStats
	for _, t := range r.m.tickets {
		if t.CreatedAt.Before(since) {
			continue
		}
		stats.Count++
		if t.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = t.UpdatedAt
		}
	}
	stats.Categories = len(r.m.categories)
	for _, c := range r.m.categories {
		if c.UpdatedAt.After(stats.CategoriesUpdated) {
			stats.CategoriesUpdated = c.UpdatedAt
		}
	}
	for _, u := range r.m.users {
		if u.UpdatedAt.After(stats.UsersUpdated) {
			stats.UsersUpdated = u.UpdatedAt
		}
	}
	return stats, nil
}

func matchTicket(t domain.Ticket, f TicketFilter) bool {
	if len(f.Statuses) > 0 && !containsValue(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsValue(f.Priorities, t.Priority) {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if strings.TrimSpace(f.SearchTerm) != "" &&
		!containsFold(t.Subject, f.SearchTerm) && !containsFold(t.Description, f.SearchTerm) {
		return false
	}
	return true
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

var (
	statusRank = map[domain.TicketStatus]int{
		domain.TicketStatusOpen:     0,
		domain.TicketStatusPending:  1,
		domain.TicketStatusResolved: 2,
		domain.TicketStatusClosed:   3,
	}
	priorityRank = map[domain.TicketPriority]int{
		domain.TicketPriorityLow:    0,
		domain.TicketPriorityMedium: 1,
		domain.TicketPriorityHigh:   2,
		domain.TicketPriorityUrgent: 3,
	}
)

func sortTickets(tickets []domain.Ticket, orderBy string, desc bool) {
	compare := func(a, b domain.Ticket) int {
		switch orderBy {
		case TicketOrderUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case TicketOrderStatus:
			return statusRank[a.Status] - statusRank[b.Status]
		case TicketOrderPriority:
			return priorityRank[a.Priority] - priorityRank[b.Priority]
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		c := compare(tickets[i], tickets[j])
		if c == 0 {
			return tickets[i].ID < tickets[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

type memComments struct{ m *Memory }

func (r memComments) Create(_ context.Context, comment *domain.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tickets[comment.TicketID]; !ok {
		return foreignKeyViolation("ticket_comments_ticket_id_fkey")
	}
	if !r.m.userExists(&comment.CreatedBy) {
		return foreignKeyViolation("ticket_comments_created_by_fkey")
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = stamp(comment.CreatedAt)
	comment.UpdatedAt = comment.CreatedAt
	r.m.comments[comment.ID] = *comment
	return nil
}

func (r memComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var result []domain.Comment
	for _, c := range r.m.comments {
		if c.TicketID != ticketID {
			continue
		}
		c.Author = nil
		if u, ok := r.m.users[c.CreatedBy]; ok {
			c.Author = &domain.UserRef{ID: u.ID, FullName: u.FullName}
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type memArticles struct{ m *Memory }

func (r memArticles) Create(_ context.Context, article *domain.Article) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if !r.m.categoryExists(article.CategoryID) {
		return foreignKeyViolation("knowledge_base_category_id_fkey")
	}
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	article.CreatedAt = stamp(article.CreatedAt)
	article.UpdatedAt = article.CreatedAt
	r.m.articles[article.ID] = *article
	return nil
}

func (r memArticles) Update(_ context.Context, article *domain.Article) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.articles[article.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !r.m.categoryExists(article.CategoryID) {
		return foreignKeyViolation("knowledge_base_category_id_fkey")
	}
	article.AuthorID = existing.AuthorID
	article.CreatedAt = existing.CreatedAt
	article.UpdatedAt = stamp(article.UpdatedAt)
	r.m.articles[article.ID] = *article
	return nil
}

func (r memArticles) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.articles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.m.articles, id)
	return nil
}

func (r memArticles) GetByID(_ context.Context, id string) (*domain.Article, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	a, ok := r.m.articles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	a = r.m.hydrateArticle(a)
	return &a, nil
}

func (r memArticles) List(_ context.Context, filter ArticleFilter) ([]domain.Article, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var result []domain.Article
	for _, a := range r.m.articles {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.SearchTerm != "" && !containsFold(a.Title, filter.SearchTerm) && !containsFold(a.Content, filter.SearchTerm) {
			continue
		}
		result = append(result, r.m.hydrateArticle(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

type memCanned struct{ m *Memory }

func (r memCanned) Create(_ context.Context, resp *domain.CannedResponse) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	resp.CreatedAt = stamp(resp.CreatedAt)
	resp.UpdatedAt = resp.CreatedAt
	r.m.canned[resp.ID] = *resp
	return nil
}

func (r memCanned) Update(_ context.Context, resp *domain.CannedResponse) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.canned[resp.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	resp.CreatedBy = existing.CreatedBy
	resp.CreatedAt = existing.CreatedAt
	resp.UpdatedAt = stamp(resp.UpdatedAt)
	r.m.canned[resp.ID] = *resp
	return nil
}

func (r memCanned) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.canned[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.m.canned, id)
	return nil
}

func (r memCanned) GetByID(_ context.Context, id string) (*domain.CannedResponse, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.canned[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memCanned) List(_ context.Context) ([]domain.CannedResponse, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	result := make([]domain.CannedResponse, 0, len(r.m.canned))
	for _, c := range r.m.canned {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Title != result[j].Title {
			return result[i].Title < result[j].Title
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
