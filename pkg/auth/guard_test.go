package auth

import (
	"testing"

	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/enums"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
)

func TestRequireAuthenticated(t *testing.T) {
	if err := RequireAuthenticated(nil); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for nil session, got %v", err)
	}
	if err := RequireAuthenticated(&session.Data{}); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for zero user, got %v", err)
	}
	if err := RequireAuthenticated(&session.Data{UserID: 4}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestRequireRoleDeniesMissingRoleAfterAuthentication(t *testing.T) {
	data := &session.Data{UserID: 5}

	if err := RequireAuthenticated(data); err != nil {
		t.Fatalf("authenticated check should pass, got %v", err)
	}
	err := RequireRole(data, enums.Roles(enums.RoleAdmin, enums.RoleSeller, enums.RoleCustomer))
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for missing role, got %v", err)
	}
	if DenialReason(err) != ReasonMissingRole {
		t.Fatalf("expected missing_role reason, got %q", DenialReason(err))
	}
	if pkgerrors.As(err).Message() != MsgAccessDenied {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		data    *session.Data
		allowed enums.RoleSet
		wantErr bool
		reason  string
	}{
		{name: "nil session", data: nil, allowed: enums.Roles(enums.RoleAdmin), wantErr: true, reason: ReasonMissingRole},
		{name: "matching role", data: &session.Data{UserID: 1, Role: enums.RoleSeller}, allowed: enums.Roles(enums.RoleSeller, enums.RoleAdmin)},
		{name: "case insensitive", data: &session.Data{UserID: 1, Role: "ADMIN"}, allowed: enums.Roles(enums.RoleAdmin)},
		{name: "wrong role", data: &session.Data{UserID: 1, Role: enums.RoleCustomer}, allowed: enums.Roles(enums.RoleSeller), wantErr: true, reason: ReasonRoleMismatch},
		{name: "empty set", data: &session.Data{UserID: 1, Role: enums.RoleAdmin}, allowed: nil, wantErr: true, reason: ReasonRoleMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRole(tt.data, tt.allowed)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
					t.Fatalf("expected forbidden, got %v", err)
				}
				if DenialReason(err) != tt.reason {
					t.Fatalf("expected reason %q, got %q", tt.reason, DenialReason(err))
				}
			}
		})
	}
}

func TestPermissionsTable(t *testing.T) {
	if !Can(enums.RoleSeller, ActionCreateInventory) {
		t.Fatal("seller should create inventory")
	}
	if Can(enums.RoleAdmin, ActionCreateInventory) {
		t.Fatal("admin should not create inventory")
	}
	if !Can("Admin", ActionManageAnyInventory) {
		t.Fatal("admin should bypass ownership")
	}
	if Can(enums.RoleCustomer, ActionViewSellerDashboard) {
		t.Fatal("customer should not see seller dashboard")
	}
	if Can("", ActionViewCustomerDashboard) {
		t.Fatal("empty role should have no permissions")
	}

	deleters := RolesFor(ActionDeleteInventory)
	if !deleters.Contains(enums.RoleSeller) || !deleters.Contains(enums.RoleAdmin) || deleters.Contains(enums.RoleCustomer) {
		t.Fatalf("unexpected delete roles %v", deleters)
	}
	if got := RolesFor(ActionViewCustomerDashboard); len(got) != 3 {
		t.Fatalf("expected all roles for customer dashboard, got %v", got)
	}
}
