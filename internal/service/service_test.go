package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/repository"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// recorder collects every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	repos    *repository.Repositories
	deps     Dependencies
	recorded *recorder
	now      time.Time

	clientA domain.User
	clientB domain.User
	agent   domain.User
	agent2  domain.User
	manager domain.User
}

func newFixture(t *testing.T, opts authz.Options) *fixture {
	t.Helper()
	az, err := authz.New(opts)
	require.NoError(t, err)

	f := &fixture{
		repos:    repository.NewMemory().Repositories(),
		recorded: &recorder{},
		now:      t0,
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, f.recorded.handle)
	}
	f.deps = Dependencies{
		Repos:      f.repos,
		Authorizer: az,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return f.now },
	}

	f.clientA = f.seedUser(t, "Client A", domain.RoleClient)
	f.clientB = f.seedUser(t, "Client B", domain.RoleClient)
	f.agent = f.seedUser(t, "Agent Smith", domain.RoleAgent)
	f.agent2 = f.seedUser(t, "Agent Jones", domain.RoleAgent)
	f.manager = f.seedUser(t, "Manager Moe", domain.RoleManager)
	return f
}

func (f *fixture) seedUser(t *testing.T, name string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{FullName: name, Role: role, CreatedAt: t0}
	require.NoError(t, f.repos.Users.Create(context.Background(), &u, nil))
	return u
}

func actorOf(u domain.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) tickets() *TicketService {
	return NewTicketService(f.deps, NewSLAService(f.deps))
}

func (f *fixture) fileTicket(t *testing.T, by domain.User, subject string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets().Create(context.Background(), actorOf(by), TicketCreateInput{Subject: subject})
	require.NoError(t, err)
	return ticket
}
