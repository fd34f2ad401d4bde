package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"plabroom/internal/app"
	"plabroom/internal/pkg/jwtutil"
)

const testSecret = "test-secret"

func newAuthService() (*app.AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	return app.NewAuthService(users, testSecret, time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()

	result, err := svc.Register(app.RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "alice@example.com", result.User.Email)
	require.True(t, result.User.Active)
	require.False(t, result.User.IsAdmin)

	claims, err := jwtutil.ParseToken(testSecret, result.Token)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)

	login, err := svc.Login(app.LoginInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, result.User.ID, login.User.ID)
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(app.RegisterInput{Username: "alice", Email: "a@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Register(app.RegisterInput{Username: "alice", Email: "other@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, app.ErrUsernameExists)

	_, err = svc.Register(app.RegisterInput{Username: "alice2", Email: "a@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, app.ErrEmailExists)
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(app.RegisterInput{Username: "alice", Email: "a@example.com", Password: "short"})
	require.ErrorIs(t, err, app.ErrInvalidInput)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(app.RegisterInput{Username: "alice", Email: "a@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(app.LoginInput{Username: "alice", Password: "wrong-horse!"})
	require.ErrorIs(t, err, app.ErrInvalidCredential)

	_, err = svc.Login(app.LoginInput{Username: "nobody99", Password: "correct-horse"})
	require.ErrorIs(t, err, app.ErrInvalidCredential)
}

func TestLoginDisabledUser(t *testing.T) {
	svc, users := newAuthService()

	result, err := svc.Register(app.RegisterInput{Username: "alice", Email: "a@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	user, err := users.GetByID(result.User.ID)
	require.NoError(t, err)
	user.Active = false
	require.NoError(t, users.Save(user))

	_, err = svc.Login(app.LoginInput{Username: "alice", Password: "correct-horse"})
	require.ErrorIs(t, err, app.ErrUserDisabled)
}
