package authz

import "github.com/deskline/helpdesk/internal/domain"

type Action string
type Resource string
type Scope string

const (
	ActionRead          Action = "read"
	ActionList          Action = "list"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionUpdateStatus  Action = "update_status"
	ActionAssign        Action = "assign"
	ActionUpdateRole    Action = "update_role"
	ActionReadInternal  Action = "read_internal"
	ActionReadPublished Action = "read_published"

	WildcardAction Action = "*"
)

const (
	ResourceUser           Resource = "user"
	ResourceTicket         Resource = "ticket"
	ResourceComment        Resource = "comment"
	ResourceArticle        Resource = "article"
	ResourceCategory       Resource = "category"
	ResourceCannedResponse Resource = "canned_response"
	ResourceSLA            Resource = "sla"
	ResourceDashboard      Resource = "dashboard"
)

const (
	ScopeOwn Scope = "own"
	ScopeAny Scope = "any"
)

// Policy is one grant row: p, role, resource, action, scope.
type Policy struct {
	Role     domain.Role
	Resource Resource
	Action   Action
	Scope    Scope
}

// Inheritance is one grouping row: g, role, inherits.
type Inheritance struct {
	Role     domain.Role
	Inherits domain.Role
}

// RoleInheritance returns the grouping rows. Managers hold every agent grant.
func RoleInheritance() []Inheritance {
	return []Inheritance{{Role: domain.RoleManager, Inherits: domain.RoleAgent}}
}

// DefaultPolicies returns the grant rows for opts.
func DefaultPolicies(opts Options) []Policy {
	client := domain.RoleClient
	agent := domain.RoleAgent
	manager := domain.RoleManager

	policies := []Policy{
		// Clients see and file their own tickets only.
		{client, ResourceUser, ActionRead, ScopeOwn},
		{client, ResourceUser, ActionUpdate, ScopeOwn},
		{client, ResourceTicket, ActionCreate, ScopeOwn},
		{client, ResourceTicket, ActionRead, ScopeOwn},
		{client, ResourceTicket, ActionList, ScopeOwn},
		{client, ResourceComment, ActionRead, ScopeOwn},
		{client, ResourceArticle, ActionReadPublished, ScopeAny},
		{client, ResourceCategory, ActionRead, ScopeAny},
		{client, ResourceCategory, ActionList, ScopeAny},

		// Agents triage every ticket but cannot create, edit or delete them.
		{agent, ResourceUser, ActionRead, ScopeAny},
		{agent, ResourceUser, ActionList, ScopeAny},
		{agent, ResourceUser, ActionUpdate, ScopeOwn},
		{agent, ResourceTicket, ActionRead, ScopeAny},
		{agent, ResourceTicket, ActionList, ScopeAny},
		{agent, ResourceTicket, ActionUpdateStatus, ScopeAny},
		{agent, ResourceTicket, ActionAssign, ScopeAny},
		{agent, ResourceComment, ActionRead, ScopeAny},
		{agent, ResourceComment, ActionCreate, ScopeAny},
		{agent, ResourceComment, ActionReadInternal, ScopeAny},
		{agent, ResourceArticle, ActionReadPublished, ScopeAny},
		{agent, ResourceArticle, ActionRead, ScopeAny},
		{agent, ResourceArticle, ActionList, ScopeAny},
		{agent, ResourceArticle, ActionCreate, ScopeAny},
		{agent, ResourceArticle, ActionUpdate, ScopeAny},
		{agent, ResourceArticle, ActionDelete, ScopeAny},
		{agent, ResourceCategory, ActionRead, ScopeAny},
		{agent, ResourceCategory, ActionList, ScopeAny},
		{agent, ResourceCannedResponse, ActionRead, ScopeAny},
		{agent, ResourceCannedResponse, ActionList, ScopeAny},
		{agent, ResourceCannedResponse, ActionCreate, ScopeAny},
		{agent, ResourceCannedResponse, ActionUpdate, ScopeOwn},
		{agent, ResourceCannedResponse, ActionDelete, ScopeOwn},
		{agent, ResourceSLA, ActionRead, ScopeAny},
		{agent, ResourceDashboard, ActionRead, ScopeAny},

		// Managers additionally own users, tickets, categories and settings.
		{manager, ResourceUser, WildcardAction, ScopeAny},
		{manager, ResourceTicket, WildcardAction, ScopeAny},
		{manager, ResourceComment, WildcardAction, ScopeAny},
		{manager, ResourceArticle, WildcardAction, ScopeAny},
		{manager, ResourceCategory, WildcardAction, ScopeAny},
		{manager, ResourceCannedResponse, WildcardAction, ScopeAny},
		{manager, ResourceSLA, WildcardAction, ScopeAny},
		{manager, ResourceDashboard, WildcardAction, ScopeAny},
	}

	if opts.AllowClientComments {
		policies = append(policies, Policy{client, ResourceComment, ActionCreate, ScopeOwn})
	}
	return policies
}
