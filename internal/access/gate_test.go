package access

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"focolare/internal/core"
)

type fakeMemberships struct {
	memberships []core.Membership
	err         error
}

func (f *fakeMemberships) ActiveMemberships(_ context.Context, userID string) ([]core.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Membership
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func membership(household, user string, role core.Role) core.Membership {
	return core.Membership{HouseholdID: household, UserID: user, Role: role, IsActive: true}
}

func TestResolveAccessibleHouseholds(t *testing.T) {
	gate := NewGate(&fakeMemberships{memberships: []core.Membership{
		membership("casa-a", "u1", core.RoleOwner),
		membership("casa-b", "u1", core.RoleViewer),
		{HouseholdID: "casa-c", UserID: "u1", Role: core.RoleMember, IsActive: false},
		membership("casa-d", "u2", core.RoleAdmin),
	}})

	tests := []struct {
		name      string
		userID    string
		requested []string
		want      []string
	}{
		{"empty request returns all active", "u1", nil, []string{"casa-a", "casa-b"}},
		{"intersection drops inaccessible", "u1", []string{"casa-a", "casa-d"}, []string{"casa-a"}},
		{"inactive membership grants nothing", "u1", []string{"casa-c"}, nil},
		{"all inaccessible yields empty, not error", "u2", []string{"casa-a", "casa-b"}, nil},
		{"duplicates collapse", "u1", []string{"casa-b", "casa-b"}, []string{"casa-b"}},
		{"unknown user has no households", "ghost", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.ResolveAccessibleHouseholds(context.Background(), tt.userID, tt.requested)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			// Result must always be a subset of the request when one is given.
			if len(tt.requested) > 0 {
				requested := make(map[string]bool)
				for _, id := range tt.requested {
					requested[id] = true
				}
				for _, id := range got {
					if !requested[id] {
						t.Errorf("id %q not in requested set", id)
					}
				}
			}
		})
	}
}

func TestResolveAccessibleHouseholdsFetchError(t *testing.T) {
	boom := errors.New("connection reset")
	gate := NewGate(&fakeMemberships{err: boom})
	_, err := gate.ResolveAccessibleHouseholds(context.Background(), "u1", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("collaborator error must propagate, got %v", err)
	}
}

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		action Action
		role   core.Role
		want   bool
	}{
		{ActionManageReceipts, core.RoleMember, true},
		{ActionManageReceipts, core.RoleViewer, false},
		{ActionManageCategories, core.RoleAdmin, true},
		{ActionManageBudgets, core.RoleMember, true},
		{ActionManageBudgets, core.RoleViewer, false},
		{ActionManageMembers, core.RoleAdmin, true},
		{ActionManageMembers, core.RoleMember, false},
		{ActionManageHousehold, core.RoleOwner, true},
		{ActionManageHousehold, core.RoleAdmin, false},
		{ActionView, core.RoleViewer, true},
	}
	for _, tt := range tests {
		if got := Allowed(tt.action, tt.role); got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.action, tt.role, got, tt.want)
		}
	}
}

func TestCheckCanAct(t *testing.T) {
	gate := NewGate(&fakeMemberships{memberships: []core.Membership{
		membership("casa-a", "owner", core.RoleOwner),
		membership("casa-a", "viewer", core.RoleViewer),
		{HouseholdID: "casa-a", UserID: "former", Role: core.RoleAdmin, IsActive: false},
	}})
	ctx := context.Background()

	if err := gate.CheckCanAct(ctx, "casa-a", "owner", ActionManageHousehold); err != nil {
		t.Errorf("owner must manage household: %v", err)
	}
	if err := gate.CheckCanAct(ctx, "casa-a", "viewer", ActionManageReceipts); !errors.Is(err, core.ErrPermissionDenied) {
		t.Errorf("viewer managing receipts: got %v, want ErrPermissionDenied", err)
	}
	if err := gate.CheckCanAct(ctx, "casa-a", "former", ActionView); !errors.Is(err, core.ErrPermissionDenied) {
		t.Errorf("inactive membership: got %v, want ErrPermissionDenied", err)
	}
	if err := gate.CheckCanAct(ctx, "casa-b", "owner", ActionView); !errors.Is(err, core.ErrPermissionDenied) {
		t.Errorf("no membership at all: got %v, want ErrPermissionDenied", err)
	}
}

func TestCheckCanRemoveMember(t *testing.T) {
	gate := NewGate(&fakeMemberships{memberships: []core.Membership{
		membership("casa-a", "owner", core.RoleOwner),
		membership("casa-a", "admin", core.RoleAdmin),
		membership("casa-a", "plain", core.RoleMember),
	}})
	ctx := context.Background()

	// Owner memberships are immutable, even for another owner.
	err := gate.CheckCanRemoveMember(ctx, "owner", membership("casa-a", "owner", core.RoleOwner))
	if !errors.Is(err, core.ErrOwnerImmutable) {
		t.Errorf("removing an owner: got %v, want ErrOwnerImmutable", err)
	}

	if err := gate.CheckCanRemoveMember(ctx, "admin", membership("casa-a", "plain", core.RoleMember)); err != nil {
		t.Errorf("admin removing member: %v", err)
	}

	err = gate.CheckCanRemoveMember(ctx, "plain", membership("casa-a", "admin", core.RoleAdmin))
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Errorf("member removing admin: got %v, want ErrPermissionDenied", err)
	}
}
