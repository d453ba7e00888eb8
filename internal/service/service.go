package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// Actor is the caller a service acts for.
type Actor struct {
	UserID string
	Role   domain.Role
}

// ActorFromPrincipal converts the authenticated principal.
func ActorFromPrincipal(p *auth.Principal) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{UserID: p.UserID, Role: p.Role}
}

// Dependencies bundles what every service needs.
type Dependencies struct {
	Repos      *repository.Repositories
	Authorizer *authz.Authorizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

// publish sends event when a dispatcher is configured. Delivery problems never
// fail the mutation that produced the event.
func (d Dependencies) publish(ctx context.Context, event events.Event) {
	if d.Dispatcher == nil {
		return
	}
	if err := d.Dispatcher.Publish(ctx, event); err != nil {
		d.logger().Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
