package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"plabroom/internal/app"
	"plabroom/internal/model"
)

func TestUpdateUserFlags(t *testing.T) {
	users := newFakeUserStore()
	require.NoError(t, users.Create(&model.User{Username: "admin", IsAdmin: true, Active: true}))
	require.NoError(t, users.Create(&model.User{Username: "bob", Active: true}))

	svc := app.NewAdminService(users)

	promoted := true
	user, err := svc.UpdateUserFlags(1, 2, app.UpdateUserFlagsInput{IsAdmin: &promoted})
	require.NoError(t, err)
	require.True(t, user.IsAdmin)

	deactivated := false
	user, err = svc.UpdateUserFlags(1, 2, app.UpdateUserFlagsInput{Active: &deactivated})
	require.NoError(t, err)
	require.False(t, user.Active)
	require.True(t, user.IsAdmin, "admin flag untouched when only active changes")
}

func TestUpdateUserFlagsSelfDemotion(t *testing.T) {
	users := newFakeUserStore()
	require.NoError(t, users.Create(&model.User{Username: "admin", IsAdmin: true, Active: true}))

	svc := app.NewAdminService(users)

	demote := false
	_, err := svc.UpdateUserFlags(1, 1, app.UpdateUserFlagsInput{IsAdmin: &demote})
	require.ErrorIs(t, err, app.ErrInvalidInput)
}

func TestUpdateUserFlagsUnknownUser(t *testing.T) {
	users := newFakeUserStore()
	svc := app.NewAdminService(users)

	active := true
	_, err := svc.UpdateUserFlags(1, 42, app.UpdateUserFlagsInput{Active: &active})
	require.ErrorIs(t, err, app.ErrUserNotFound)
}
