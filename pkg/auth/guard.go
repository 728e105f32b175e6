package auth

import (
	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/enums"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
)

const (
	MsgLoginRequired = "Please log in first"
	MsgAccessDenied  = "Access denied"
	MsgNoPermission  = "You do not have permission to access this page"
)

// Denial reasons, used as log fields and metric labels.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonMissingRole     = "missing_role"
	ReasonRoleMismatch    = "role_mismatch"
)

// RequireAuthenticated fails with CodeUnauthorized unless data identifies a user.
func RequireAuthenticated(data *session.Data) error {
	if data == nil || data.UserID == 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginRequired).
			WithDetails(map[string]any{"reason": ReasonUnauthenticated})
	}
	return nil
}

// RequireRole fails with CodeForbidden unless the session role is in allowed.
// Roles compare case-insensitively; a missing role is always denied.
func RequireRole(data *session.Data, allowed enums.RoleSet) error {
	if data == nil || data.Role.Normalize() == "" {
		return pkgerrors.New(pkgerrors.CodeForbidden, MsgAccessDenied).
			WithDetails(map[string]any{"reason": ReasonMissingRole})
	}
	if !allowed.Contains(data.Role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, MsgNoPermission).
			WithDetails(map[string]any{"reason": ReasonRoleMismatch})
	}
	return nil
}

// DenialReason extracts the reason recorded by the guards.
func DenialReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	if details, ok := typed.Details().(map[string]any); ok {
		if reason, ok := details["reason"].(string); ok {
			return reason
		}
	}
	return ""
}
