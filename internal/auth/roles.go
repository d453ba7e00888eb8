package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/authz"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// RequireGrant rejects callers whose role holds no grant for action on
// resource at any scope. Services still make the record-level decision.
func RequireGrant(az *authz.Authorizer, action authz.Action, resource authz.Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := MustPrincipal(c)
		if err != nil {
			return err
		}
		if !az.Allow(principal.Role, action, resource, authz.ScopeOwn) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
