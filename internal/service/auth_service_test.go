package service

import (
	"context"
	"testing"

	"stockroom/internal/apierror"
	"stockroom/internal/config"
	"stockroom/internal/dto"
	"stockroom/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret-with-enough-entropy",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func seedUser(t *testing.T, repo *stubUserRepo, username, password, role string, active bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		Username:     username,
		Email:        username + "@stockroom.test",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(t, repo, "maria", "s3cret-pass", model.RoleStaff, true)
	audit := &spyRecorder{}
	svc := NewAuthService(repo, testAuthConfig(), audit)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: " maria ", Password: "s3cret-pass"}, "10.1.1.1", "req-1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLogin)

	parsed, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(testAuthConfig().JWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, TokenAccess, claims["typ"])
	assert.Equal(t, model.RoleStaff, claims["role"])

	logins := audit.byAction(model.AuditLogin)
	require.Len(t, logins, 1)
	assert.Equal(t, "10.1.1.1", logins[0].Actor.IP)
	assert.Equal(t, u.ID, logins[0].Actor.UserID)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "maria", "s3cret-pass", model.RoleStaff, true)
	seedUser(t, repo, "gone", "s3cret-pass", model.RoleStaff, false)
	svc := NewAuthService(repo, testAuthConfig(), &spyRecorder{})

	cases := map[string]dto.LoginRequest{
		"wrong password": {Username: "maria", Password: "nope-nope"},
		"unknown user":   {Username: "nobody", Password: "s3cret-pass"},
		"inactive user":  {Username: "gone", Password: "s3cret-pass"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), req, "", "")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestRefresh(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "maria", "s3cret-pass", model.RoleUser, true)
	svc := NewAuthService(repo, testAuthConfig(), &spyRecorder{})
	pair, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "s3cret-pass"}, "", "")
	require.NoError(t, err)

	t.Run("refresh token yields a new pair", func(t *testing.T) {
		next, err := svc.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, next.AccessToken)
		assert.Equal(t, "maria", next.User.Username)
	})

	t.Run("access token is refused", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), pair.AccessToken)
		assert.True(t, apierror.Is(err, apierror.KindValidation))
	})

	t.Run("garbage is refused", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), "not.a.jwt")
		assert.True(t, apierror.Is(err, apierror.KindValidation))
	})
}

func TestCreateUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testAuthConfig(), &spyRecorder{})
	req := dto.CreateUserRequest{Username: "joe", Email: "joe@stockroom.test", Password: "long-enough"}

	_, err := svc.CreateUser(context.Background(), staff, req)
	assert.True(t, apierror.Is(err, apierror.KindForbidden))

	created, err := svc.CreateUser(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, created.Role)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "long-enough", repo.users[created.ID].PasswordHash)

	_, err = svc.CreateUser(context.Background(), admin, req)
	assert.True(t, apierror.Is(err, apierror.KindConflict))
}

func TestDeactivateUser_NotSelf(t *testing.T) {
	repo := newStubUserRepo()
	other := seedUser(t, repo, "temp", "whatever1", model.RoleUser, true)
	svc := NewAuthService(repo, testAuthConfig(), &spyRecorder{})

	self := Actor{UserID: 99, Role: model.RoleAdmin}
	err := svc.DeactivateUser(context.Background(), self, self.UserID)
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	supervisor := Actor{UserID: 1000, Role: model.RoleAdmin}
	require.NoError(t, svc.DeactivateUser(context.Background(), supervisor, other.ID))
	assert.False(t, repo.users[other.ID].IsActive)
}
