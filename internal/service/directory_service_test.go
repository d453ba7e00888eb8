package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func TestUsers_ProfileAndRole(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	users := NewUserService(f.deps)

	_, err := users.Get(ctx, actorOf(f.clientA), f.clientB.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	me, err := users.UpdateProfile(ctx, actorOf(f.clientA), f.clientA.ID, ProfileUpdateInput{FullName: strPtr("Client Alpha"), AvatarURL: strPtr("https://cdn.example.com/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "Client Alpha", me.FullName)
	require.NotNil(t, me.AvatarURL)

	cleared, err := users.UpdateProfile(ctx, actorOf(f.clientA), f.clientA.ID, ProfileUpdateInput{AvatarURL: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.AvatarURL)
	assert.Equal(t, domain.RoleClient, cleared.Role)

	_, err = users.UpdateRole(ctx, actorOf(f.agent), f.clientA.ID, domain.RoleAgent)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	_, err = users.UpdateRole(ctx, actorOf(f.manager), f.clientA.ID, "admin")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	promoted, err := users.UpdateRole(ctx, actorOf(f.manager), f.clientA.ID, domain.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, promoted.Role)

	agents := domain.RoleAgent
	list, err := users.List(ctx, actorOf(f.agent), repository.UserFilter{Role: &agents})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = users.List(ctx, actorOf(f.clientB), repository.UserFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))
}

func TestCategories_ManagerManages(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	categories := NewCategoryService(f.deps)

	_, err := categories.Create(ctx, actorOf(f.agent), CategoryInput{Name: strPtr("Billing")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	_, err = categories.Create(ctx, actorOf(f.manager), CategoryInput{Name: strPtr("  ")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	billing, err := categories.Create(ctx, actorOf(f.manager), CategoryInput{Name: strPtr("Billing"), Description: strPtr("Invoices")})
	require.NoError(t, err)

	list, err := categories.List(ctx, actorOf(f.clientA))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Billing", list[0].Name)

	ticket, err := f.tickets().Create(ctx, actorOf(f.clientA), TicketCreateInput{Subject: "refund", CategoryID: &billing.ID})
	require.NoError(t, err)
	require.NotNil(t, ticket.Category)

	require.NoError(t, categories.Delete(ctx, actorOf(f.manager), billing.ID))
	reread, err := f.tickets().Get(ctx, actorOf(f.clientA), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, reread.CategoryID)
}

func TestCannedResponses_OwnershipRules(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	canned := NewCannedResponseService(f.deps)

	_, err := canned.List(ctx, actorOf(f.clientA))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	mine, err := canned.Create(ctx, actorOf(f.agent), CannedResponseInput{Title: strPtr("Greeting"), Content: strPtr("Hi there")})
	require.NoError(t, err)
	assert.Equal(t, f.agent.ID, mine.CreatedBy)

	_, err = canned.Update(ctx, actorOf(f.agent2), mine.ID, CannedResponseInput{Content: strPtr("hijacked")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))
	assert.True(t, apperrors.HasCode(canned.Delete(ctx, actorOf(f.agent2), mine.ID), apperrors.CodeAuthorizationDenied))

	updated, err := canned.Update(ctx, actorOf(f.agent), mine.ID, CannedResponseInput{Content: strPtr("Hello!")})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", updated.Content)

	require.NoError(t, canned.Delete(ctx, actorOf(f.manager), mine.ID))
	list, err := canned.List(ctx, actorOf(f.agent))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSLA_ReplaceValidatesAndApplies(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	sla := NewSLAService(f.deps)

	policies, err := sla.List(ctx, actorOf(f.agent))
	require.NoError(t, err)
	require.Len(t, policies, 4)
	assert.Equal(t, domain.TicketPriorityLow, policies[0].Priority)

	_, err = sla.List(ctx, actorOf(f.clientA))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	_, err = sla.Replace(ctx, actorOf(f.agent), policies)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthorizationDenied))

	_, err = sla.Replace(ctx, actorOf(f.manager), policies[:3])
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	broken := append([]domain.SLAPolicy(nil), policies...)
	broken[0].ResponseHours = broken[0].ResolutionHours + 1
	_, err = sla.Replace(ctx, actorOf(f.manager), broken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	faster := append([]domain.SLAPolicy(nil), policies...)
	faster[1].ResolutionHours = 12
	_, err = sla.Replace(ctx, actorOf(f.manager), faster)
	require.NoError(t, err)

	ticket, err := NewTicketService(f.deps, sla).Create(ctx, actorOf(f.clientA), TicketCreateInput{Subject: "medium"})
	require.NoError(t, err)
	require.NotNil(t, ticket.SLADueAt)
	assert.Equal(t, t0.Add(12*time.Hour), *ticket.SLADueAt)
}
