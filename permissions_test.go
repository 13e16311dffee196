package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentryRoleOverridesWin(t *testing.T) {
	ctx := context.Background()
	principal := Principal{UserID: "u1", RoleID: "editors"}
	sentry := NewSentry(StaticPermissions{ActionDelete: true})

	role := &RoleConfig{Permissions: map[Action]Access{
		ActionDelete:         AccessDeny,
		ActionEditProfiles:   AccessAllow,
		ActionAssignProfiles: AccessInherit,
	}}

	cases := []struct {
		action Action
		want   bool
	}{
		{ActionDelete, false},
		{ActionEditProfiles, true},
		{ActionAssignProfiles, false},
		{ActionEnableDisable, false},
	}
	for _, tc := range cases {
		got, err := sentry.Allowed(ctx, principal, role, tc.action)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "action %s", tc.action)
	}

	got, err := sentry.Allowed(ctx, principal, nil, ActionDelete)
	require.NoError(t, err)
	assert.True(t, got, "no role config defers to the checker")
}

func TestSentryRequireReturnsPermissionError(t *testing.T) {
	principal := Principal{UserID: "u1", RoleID: "viewers"}
	err := NewSentry(nil).Require(context.Background(), principal, nil, ActionEditForcedType)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, ActionEditForcedType, permErr.Action)
	assert.Equal(t, principal, permErr.Principal)
}

func TestSentryPropagatesCheckerFailure(t *testing.T) {
	boom := errors.New("acl offline")
	sentry := NewSentry(PermissionCheckerFunc(func(context.Context, Principal, Action) (bool, error) {
		return false, boom
	}))

	_, err := sentry.Allowed(context.Background(), Principal{}, nil, ActionDelete)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}
