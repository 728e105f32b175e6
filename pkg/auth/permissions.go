package auth

import "github.com/marketdesk/marketdesk/pkg/enums"

// Action names something a role may do.
type Action string

const (
	ActionViewCustomerDashboard Action = "dashboard:customer"
	ActionViewSellerDashboard   Action = "dashboard:seller"
	ActionViewAdminDashboard    Action = "dashboard:admin"
	ActionCreateInventory       Action = "inventory:create"
	ActionUpdateInventory       Action = "inventory:update"
	ActionDeleteInventory       Action = "inventory:delete"
	// ActionManageAnyInventory skips the ownership check on existing items.
	ActionManageAnyInventory Action = "inventory:manage_any"
)

// Permissions maps each role to the actions it may perform.
var Permissions = map[enums.Role][]Action{
	enums.RoleAdmin: {
		ActionViewCustomerDashboard,
		ActionViewSellerDashboard,
		ActionViewAdminDashboard,
		ActionDeleteInventory,
		ActionManageAnyInventory,
	},
	enums.RoleSeller: {
		ActionViewCustomerDashboard,
		ActionViewSellerDashboard,
		ActionCreateInventory,
		ActionUpdateInventory,
		ActionDeleteInventory,
	},
	enums.RoleCustomer: {
		ActionViewCustomerDashboard,
	},
}

// Can reports whether role may perform action.
func Can(role enums.Role, action Action) bool {
	for _, allowed := range Permissions[role.Normalize()] {
		if allowed == action {
			return true
		}
	}
	return false
}

// RolesFor returns every role permitted to perform action.
func RolesFor(action Action) enums.RoleSet {
	var roles []enums.Role
	for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleSeller, enums.RoleCustomer} {
		if Can(role, action) {
			roles = append(roles, role)
		}
	}
	return enums.Roles(roles...)
}
