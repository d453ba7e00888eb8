// Package authz holds the helpdesk authorization rule set.
//
// Role-level grants live in a Casbin model and policy seeded in code. Whether a
// request is scoped "own" or "any" is decided from the record by the helpers in
// scope.go, so callers always ask the same question:
// may this role perform this action on this resource at this scope?
package authz

import (
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// A policy row with scope "any" grants regardless of ownership, a row with
// scope "own" grants only when the request is for an owned record.
const modelText = `
[request_definition]
r = sub, obj, act, scope

[policy_definition]
p = sub, obj, act, scope

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act) && (p.scope == "any" || r.scope == p.scope)
`

// Options toggles policy decisions that are deployment specific.
type Options struct {
	// AllowClientComments lets clients post public comments on their own tickets.
	AllowClientComments bool
}

// Authorizer answers role-level questions against the seeded policy.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds an Authorizer with the default helpdesk policy.
func New(opts Options) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	for _, inherit := range RoleInheritance() {
		if _, err := e.AddGroupingPolicy(string(inherit.Role), string(inherit.Inherits)); err != nil {
			return nil, fmt.Errorf("seed grouping %s: %w", inherit.Role, err)
		}
	}
	for _, p := range DefaultPolicies(opts) {
		if _, err := e.AddPolicy(string(p.Role), string(p.Resource), string(p.Action), string(p.Scope)); err != nil {
			return nil, fmt.Errorf("seed policy %v: %w", p, err)
		}
	}
	return &Authorizer{enforcer: e}, nil
}

// Allow reports whether role may perform action on resource at scope.
// Unknown roles and enforcement errors deny.
func (a *Authorizer) Allow(role domain.Role, action Action, resource Resource, scope Scope) bool {
	if a == nil || !role.Valid() {
		return false
	}
	ok, err := a.enforcer.Enforce(string(role), string(resource), string(action), string(scope))
	if err != nil {
		return false
	}
	return ok
}

// Require is Allow returning an AuthorizationDenied error on refusal.
func (a *Authorizer) Require(role domain.Role, action Action, resource Resource, scope Scope) error {
	if a.Allow(role, action, resource, scope) {
		return nil
	}
	return apperrors.NewForbidden(fmt.Sprintf("%s may not %s %s", role, action, resource))
}

// VisibleComments drops internal notes unless role may read them.
func (a *Authorizer) VisibleComments(role domain.Role, comments []domain.Comment) []domain.Comment {
	if a.Allow(role, ActionReadInternal, ResourceComment, ScopeAny) {
		return comments
	}
	visible := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		if c.InternalNote {
			continue
		}
		visible = append(visible, c)
	}
	return visible
}
