package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

type countingTickets struct {
	repository.TicketRepository
	fetches atomic.Int32
}

func (c *countingTickets) ListCreatedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error) {
	c.fetches.Add(1)
	return c.TicketRepository.ListCreatedSince(ctx, since)
}

func TestDashboard_ReusesSnapshotUntilTicketsChange(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	counting := &countingTickets{TicketRepository: f.repos.Tickets}
	f.repos.Tickets = counting

	first := f.fileTicket(t, f.clientA, "one")
	f.fileTicket(t, f.clientB, "two")

	dash := NewDashboardService(f.deps, 7)
	f.now = t0.Add(time.Hour)

	snap, err := dash.Get(ctx, actorOf(f.agent), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.WindowDays)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 2, snap.Open)

	_, err = dash.Get(ctx, actorOf(f.manager), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), counting.fetches.Load())

	f.now = t0.Add(2 * time.Hour)
	_, err = f.tickets().UpdateStatus(ctx, actorOf(f.agent), first.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	snap, err = dash.Get(ctx, actorOf(f.agent), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), counting.fetches.Load())
	assert.Equal(t, 1, snap.Resolved)
	assert.InDelta(t, 2.0, snap.AvgResolutionHours, 0.001)
}

func TestDashboard_AccessAndWindow(t *testing.T) {
	f := newFixture(t, authz.Options{})
	dash := NewDashboardService(f.deps, 0)

	_, err := dash.Get(context.Background(), actorOf(f.clientA), 7)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	_, err = dash.Get(context.Background(), actorOf(f.agent), 400)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	snap, err := dash.Get(context.Background(), actorOf(f.agent), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.WindowDays)
	assert.Zero(t, snap.Total)
}

func (f *fixture) billingTicket(t *testing.T) (*domain.Category, *domain.Ticket) {
	t.Helper()
	ctx := context.Background()
	cat, err := NewCategoryService(f.deps).Create(ctx, actorOf(f.manager), CategoryInput{Name: strPtr("Billing")})
	require.NoError(t, err)
	ticket, err := f.tickets().Create(ctx, actorOf(f.clientA), TicketCreateInput{Subject: "invoice", CategoryID: &cat.ID})
	require.NoError(t, err)
	return cat, ticket
}

func TestDashboard_CategoryDeleteRecomputes(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	cat, _ := f.billingTicket(t)
	dash := NewDashboardService(f.deps, 7)

	snap, err := dash.Get(ctx, actorOf(f.agent), 7)
	require.NoError(t, err)
	require.Len(t, snap.ByCategory, 1)
	assert.Equal(t, "Billing", snap.ByCategory[0].Name)

	require.NoError(t, NewCategoryService(f.deps).Delete(ctx, actorOf(f.manager), cat.ID))

	snap, err = dash.Get(ctx, actorOf(f.agent), 7)
	require.NoError(t, err)
	require.Len(t, snap.ByCategory, 1)
	assert.Equal(t, "Uncategorized", snap.ByCategory[0].Name)
	require.Len(t, f.recorded.ofType(events.EventCategoryChanged), 1)
}

func TestDashboard_CategoryRenameRecomputes(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	cat, _ := f.billingTicket(t)
	dash := NewDashboardService(f.deps, 7)

	_, err := dash.Get(ctx, actorOf(f.agent), 7)
	require.NoError(t, err)

	_, err = NewCategoryService(f.deps).Update(ctx, actorOf(f.manager), cat.ID, CategoryInput{Name: strPtr("Invoices")})
	require.NoError(t, err)

	snap, err := dash.Get(ctx, actorOf(f.agent), 7)
	require.NoError(t, err)
	require.Len(t, snap.ByCategory, 1)
	assert.Equal(t, "Invoices", snap.ByCategory[0].Name)
}

func TestDashboard_AgentRenameRecomputes(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	ticket := f.fileTicket(t, f.clientA, "vpn")
	_, err := f.tickets().Assign(ctx, actorOf(f.manager), ticket.ID, &f.agent.ID)
	require.NoError(t, err)
	dash := NewDashboardService(f.deps, 7)

	snap, err := dash.Get(ctx, actorOf(f.manager), 7)
	require.NoError(t, err)
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, "Agent Smith", snap.Agents[0].Name)

	_, err = NewUserService(f.deps).UpdateProfile(ctx, actorOf(f.agent), f.agent.ID, ProfileUpdateInput{FullName: strPtr("Renamed Agent")})
	require.NoError(t, err)

	snap, err = dash.Get(ctx, actorOf(f.manager), 7)
	require.NoError(t, err)
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, "Renamed Agent", snap.Agents[0].Name)
}

// Without a dispatcher only the fingerprint can notice the change.
func TestDashboard_FingerprintCoversCategoriesAndUsers(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	cat, ticket := f.billingTicket(t)
	_, err := f.tickets().Assign(ctx, actorOf(f.manager), ticket.ID, &f.agent.ID)
	require.NoError(t, err)

	quiet := f.deps
	quiet.Dispatcher = nil
	dash := NewDashboardService(quiet, 7)
	_, err = dash.Get(ctx, actorOf(f.manager), 7)
	require.NoError(t, err)

	f.now = t0.Add(time.Minute)
	_, err = NewUserService(quiet).UpdateProfile(ctx, actorOf(f.agent), f.agent.ID, ProfileUpdateInput{FullName: strPtr("Agent Renamed")})
	require.NoError(t, err)
	snap, err := dash.Get(ctx, actorOf(f.manager), 7)
	require.NoError(t, err)
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, "Agent Renamed", snap.Agents[0].Name)

	require.NoError(t, NewCategoryService(quiet).Delete(ctx, actorOf(f.manager), cat.ID))
	snap, err = dash.Get(ctx, actorOf(f.manager), 7)
	require.NoError(t, err)
	require.Len(t, snap.ByCategory, 1)
	assert.Equal(t, "Uncategorized", snap.ByCategory[0].Name)
}
