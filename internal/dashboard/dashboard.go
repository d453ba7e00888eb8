// Package dashboard reduces a windowed ticket set into the staff dashboard.
package dashboard

import (
	"errors"
	"sort"
	"time"

	"github.com/deskline/helpdesk/internal/domain"
)

const (
	// UncategorizedLabel names the bucket for tickets without a category.
	UncategorizedLabel = "Uncategorized"

	DefaultWindowDays = 7
	MaxWindowDays     = 365
)

// ErrInvalidWindow is returned for windows outside 1..MaxWindowDays.
var ErrInvalidWindow = errors.New("dashboard window must be between 1 and 365 days")

// CategoryCount is the number of tickets filed under one category name.
type CategoryCount struct {
	Name  string
	Count int
}

// AgentPerformance summarizes the tickets assigned to one agent.
type AgentPerformance struct {
	AgentID  string
	Name     string
	Assigned int
	Resolved int
}

// Snapshot is the computed dashboard for one window.
type Snapshot struct {
	WindowDays         int
	Since              time.Time
	GeneratedAt        time.Time
	Total              int
	Open               int
	Pending            int
	Resolved           int
	Urgent             int
	ByCategory         []CategoryCount
	Agents             []AgentPerformance
	AvgResolutionHours float64
	ResolutionRate     float64
}

// ValidateWindow checks a window length in days.
func ValidateWindow(days int) error {
	if days < 1 || days > MaxWindowDays {
		return ErrInvalidWindow
	}
	return nil
}

// WindowStart returns the inclusive lower bound of a window ending at now.
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Compute aggregates tickets, which are expected to be the tickets created
// within the window.
func Compute(tickets []domain.Ticket, windowDays int, now time.Time) Snapshot {
	snap := Snapshot{
		WindowDays:  windowDays,
		Since:       WindowStart(now, windowDays),
		GeneratedAt: now,
		Total:       len(tickets),
	}

	categories := make(map[string]int)
	agents := make(map[string]*AgentPerformance)
	var resolutionHours float64

	for i := range tickets {
		t := &tickets[i]

		switch t.Status {
		case domain.TicketStatusOpen:
			snap.Open++
		case domain.TicketStatusPending:
			snap.Pending++
		case domain.TicketStatusResolved:
			snap.Resolved++
			resolutionHours += t.UpdatedAt.Sub(t.CreatedAt).Hours()
		}
		if t.Priority == domain.TicketPriorityUrgent {
			snap.Urgent++
		}

		categories[categoryName(t)]++

		if t.AssignedTo == nil {
			continue
		}
		perf, ok := agents[*t.AssignedTo]
		if !ok {
			perf = &AgentPerformance{AgentID: *t.AssignedTo, Name: assigneeName(t)}
			agents[*t.AssignedTo] = perf
		}
		perf.Assigned++
		if t.Status == domain.TicketStatusResolved {
			perf.Resolved++
		}
	}

	if snap.Resolved > 0 {
		snap.AvgResolutionHours = resolutionHours / float64(snap.Resolved)
	}
	if denominator := snap.Open + snap.Pending + snap.Resolved; denominator > 0 {
		snap.ResolutionRate = float64(snap.Resolved) / float64(denominator) * 100
	}

	snap.ByCategory = make([]CategoryCount, 0, len(categories))
	for name, count := range categories {
		snap.ByCategory = append(snap.ByCategory, CategoryCount{Name: name, Count: count})
	}
	sort.Slice(snap.ByCategory, func(i, j int) bool {
		if snap.ByCategory[i].Count != snap.ByCategory[j].Count {
			return snap.ByCategory[i].Count > snap.ByCategory[j].Count
		}
		return snap.ByCategory[i].Name < snap.ByCategory[j].Name
	})

	snap.Agents = make([]AgentPerformance, 0, len(agents))
	for _, perf := range agents {
		snap.Agents = append(snap.Agents, *perf)
	}
	sort.Slice(snap.Agents, func(i, j int) bool {
		if snap.Agents[i].Assigned != snap.Agents[j].Assigned {
			return snap.Agents[i].Assigned > snap.Agents[j].Assigned
		}
		return snap.Agents[i].Name < snap.Agents[j].Name
	})

	return snap
}

func categoryName(t *domain.Ticket) string {
	if t.Category == nil || t.Category.Name == "" {
		return UncategorizedLabel
	}
	return t.Category.Name
}

func assigneeName(t *domain.Ticket) string {
	if t.Assignee != nil && t.Assignee.FullName != "" {
		return t.Assignee.FullName
	}
	return *t.AssignedTo
}
