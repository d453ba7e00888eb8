package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/dashboard"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/view"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// DashboardService computes staff dashboards and reuses a snapshot until the
// tickets in its window, or the categories and users they join, change.
type DashboardService struct {
	deps        Dependencies
	defaultDays int

	mu      sync.Mutex
	loaders map[int]*view.Loader[dashboard.Snapshot]
}

// NewDashboardService builds the service. defaultDays applies when a caller
// omits the window.
func NewDashboardService(deps Dependencies, defaultDays int) *DashboardService {
	if dashboard.ValidateWindow(defaultDays) != nil {
		defaultDays = dashboard.DefaultWindowDays
	}
	s := &DashboardService{
		deps:        deps,
		defaultDays: defaultDays,
		loaders:     make(map[int]*view.Loader[dashboard.Snapshot]),
	}
	if deps.Dispatcher != nil {
		deps.Dispatcher.Subscribe(events.EventCategoryChanged, s.invalidate)
		deps.Dispatcher.Subscribe(events.EventUserUpdated, s.invalidate)
	}
	return s
}

// Get returns the dashboard for the last days days. Zero selects the default.
func (s *DashboardService) Get(ctx context.Context, actor Actor, days int) (*dashboard.Snapshot, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionRead, authz.ResourceDashboard, authz.ScopeAny); err != nil {
		return nil, err
	}
	if days == 0 {
		days = s.defaultDays
	}
	if err := dashboard.ValidateWindow(days); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "days", "min": 1, "max": dashboard.MaxWindowDays})
	}

	now := s.deps.now()
	since := dashboard.WindowStart(now, days)
	stats, err := s.deps.Repos.Tickets.Stats(ctx, since)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	key := fmt.Sprintf("%d:%d:%d:%d:%d:%d", days,
		stats.Count, stats.LastUpdated.UnixNano(),
		stats.Categories, stats.CategoriesUpdated.UnixNano(),
		stats.UsersUpdated.UnixNano())

	snap, err := s.loader(days).Load(ctx, key, func(ctx context.Context) (dashboard.Snapshot, error) {
		tickets, err := s.deps.Repos.Tickets.ListCreatedSince(ctx, since)
		if err != nil {
			return dashboard.Snapshot{}, apperrors.FromStore(err, "ticket")
		}
		return dashboard.Compute(tickets, days, now), nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *DashboardService) loader(days int) *view.Loader[dashboard.Snapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loaders[days]
	if !ok {
		l = view.NewLoader[dashboard.Snapshot]()
		s.loaders[days] = l
	}
	return l
}

// invalidate drops every loaded snapshot so the next Get recomputes.
func (s *DashboardService) invalidate(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for days, l := range s.loaders {
		if l.Status().State != view.StateLoaded {
			continue
		}
		l.Invalidate()
		s.deps.logger().Debug("dashboard snapshot invalidated",
			zap.Int("days", days),
			zap.String("event_type", string(event.Type)),
		)
	}
	return nil
}
