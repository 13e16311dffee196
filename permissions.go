package grid

import (
	"context"
	"fmt"
)

// Action names a capability checked before reading or mutating a grid.
type Action string

const (
	ActionAccessAllProfiles       Action = "access_all_profiles"
	ActionAssignProfiles          Action = "assign_profiles"
	ActionEditProfiles            Action = "edit_profiles"
	ActionEditCustomizationParams Action = "edit_customization_params"
	ActionEditForcedType          Action = "edit_forced_type"
	ActionEnableDisable           Action = "enable_disable"
	ActionDelete                  Action = "delete"
)

// Access is a per-role permission override stored on a RoleConfig.
type Access string

const (
	// AccessInherit defers to the PermissionChecker.
	AccessInherit Access = "inherit"
	AccessAllow   Access = "allow"
	AccessDeny    Access = "deny"
)

// PermissionChecker answers capability checks, typically backed by an ACL.
type PermissionChecker interface {
	Check(ctx context.Context, principal Principal, action Action) (bool, error)
}

// PermissionCheckerFunc adapts a function to PermissionChecker.
type PermissionCheckerFunc func(ctx context.Context, principal Principal, action Action) (bool, error)

// Check calls fn.
func (fn PermissionCheckerFunc) Check(ctx context.Context, principal Principal, action Action) (bool, error) {
	if fn == nil {
		return false, nil
	}
	return fn(ctx, principal, action)
}

// StaticPermissions grants exactly the listed actions to everyone.
type StaticPermissions map[Action]bool

// Check reports whether action is granted.
func (p StaticPermissions) Check(_ context.Context, _ Principal, action Action) (bool, error) {
	return p[action], nil
}

// AllowAll grants every action.
var AllowAll PermissionChecker = PermissionCheckerFunc(func(context.Context, Principal, Action) (bool, error) {
	return true, nil
})

// Sentry resolves capabilities for a principal. Role overrides win over the
// checker; a missing checker denies.
type Sentry struct {
	checker PermissionChecker
}

// NewSentry wraps checker.
func NewSentry(checker PermissionChecker) *Sentry {
	return &Sentry{checker: checker}
}

// Allowed is the graceful check: denial is reported as false.
func (s *Sentry) Allowed(ctx context.Context, principal Principal, role *RoleConfig, action Action) (bool, error) {
	if role != nil {
		switch role.Permissions[action] {
		case AccessAllow:
			return true, nil
		case AccessDeny:
			return false, nil
		}
	}
	if s == nil || s.checker == nil {
		return false, nil
	}
	allowed, err := s.checker.Check(ctx, principal, action)
	if err != nil {
		return false, fmt.Errorf("grid: check %s: %w", action, err)
	}
	return allowed, nil
}

// Require is the non-graceful check: denial is a *PermissionError.
func (s *Sentry) Require(ctx context.Context, principal Principal, role *RoleConfig, action Action) error {
	allowed, err := s.Allowed(ctx, principal, role, action)
	if err != nil {
		return err
	}
	if !allowed {
		return &PermissionError{Action: action, Principal: principal}
	}
	return nil
}
