// Package access decides which households a caller may see and which
// actions their role permits. All role checks go through a single
// capability table instead of scattered conditionals.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"focolare/internal/core"
)

// Action is a capability that can be checked against a membership role.
type Action string

const (
	ActionManageReceipts   Action = "manage_receipts"
	ActionManageCategories Action = "manage_categories"
	ActionManageBudgets    Action = "manage_budgets"
	// ActionManageMembers covers inviting, removing and changing
	// non-owner roles.
	ActionManageMembers Action = "manage_members"
	// ActionManageHousehold covers household deletion, owner
	// reassignment and removing another owner.
	ActionManageHousehold Action = "manage_household"
	// ActionView is implied by any active membership.
	ActionView Action = "view"
)

// capabilities is the single (action, role) permission table.
var capabilities = map[Action]map[core.Role]bool{
	ActionManageReceipts: {
		core.RoleOwner: true, core.RoleAdmin: true, core.RoleMember: true,
	},
	ActionManageCategories: {
		core.RoleOwner: true, core.RoleAdmin: true, core.RoleMember: true,
	},
	ActionManageBudgets: {
		core.RoleOwner: true, core.RoleAdmin: true, core.RoleMember: true,
	},
	ActionManageMembers: {
		core.RoleOwner: true, core.RoleAdmin: true,
	},
	ActionManageHousehold: {
		core.RoleOwner: true,
	},
	ActionView: {
		core.RoleOwner: true, core.RoleAdmin: true, core.RoleMember: true, core.RoleViewer: true,
	},
}

// Allowed is the pure capability lookup.
func Allowed(action Action, role core.Role) bool {
	return capabilities[action][role]
}

// MembershipSource is the persistence collaborator for membership facts.
type MembershipSource interface {
	// ActiveMemberships returns every active membership of the user.
	ActiveMemberships(ctx context.Context, userID string) ([]core.Membership, error)
}

// Gate resolves household access from membership facts. It holds no state
// of its own; context is passed explicitly through every call.
type Gate struct {
	memberships MembershipSource
}

func NewGate(memberships MembershipSource) *Gate {
	return &Gate{memberships: memberships}
}

// ResolveAccessibleHouseholds returns the households the user may act on.
// An empty request means "everything I belong to". Requested ids without an
// active membership are silently dropped, never an error: an empty result
// is "no data". The returned ids are sorted for determinism.
func (g *Gate) ResolveAccessibleHouseholds(ctx context.Context, userID string, requested []string) ([]string, error) {
	memberships, err := g.memberships.ActiveMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	member := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		if m.IsActive {
			member[m.HouseholdID] = true
		}
	}

	var ids []string
	if len(requested) == 0 {
		for id := range member {
			ids = append(ids, id)
		}
	} else {
		seen := make(map[string]bool, len(requested))
		for _, id := range requested {
			if member[id] && !seen[id] {
				ids = append(ids, id)
				seen[id] = true
			}
		}
		if dropped := len(requested) - len(ids); dropped > 0 {
			slog.DebugContext(ctx, "Dropped inaccessible households from request",
				"user_id", userID, "dropped", dropped)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CheckCanAct fails with core.ErrPermissionDenied when the user has no
// active membership in the household or their role does not grant the
// action.
func (g *Gate) CheckCanAct(ctx context.Context, householdID, userID string, action Action) error {
	m, err := g.membership(ctx, householdID, userID)
	if err != nil {
		return err
	}
	if !Allowed(action, m.Role) {
		slog.WarnContext(ctx, "Action denied by role",
			"user_id", userID, "household_id", householdID,
			"role", string(m.Role), "action", string(action))
		return core.ErrPermissionDenied
	}
	return nil
}

// CheckCanRemoveMember enforces the member-removal rules: an owner
// membership is never removable (only household deletion removes it);
// removing anyone else requires the member-management capability.
func (g *Gate) CheckCanRemoveMember(ctx context.Context, actorID string, target core.Membership) error {
	if target.Role == core.RoleOwner {
		return core.ErrOwnerImmutable
	}
	return g.CheckCanAct(ctx, target.HouseholdID, actorID, ActionManageMembers)
}

func (g *Gate) membership(ctx context.Context, householdID, userID string) (core.Membership, error) {
	memberships, err := g.memberships.ActiveMemberships(ctx, userID)
	if err != nil {
		return core.Membership{}, fmt.Errorf("load memberships: %w", err)
	}
	for _, m := range memberships {
		if m.HouseholdID == householdID && m.IsActive {
			return m, nil
		}
	}
	return core.Membership{}, core.ErrPermissionDenied
}
