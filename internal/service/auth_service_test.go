package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
)

type fakeUserRepo struct {
	users         map[string]*models.User
	tokens        map[string]*models.RefreshToken
	revokedIDs    []string
	revokedAllFor []string
	lastLoginSet  bool
	passwordHash  string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) UpdateLastLogin(context.Context, string, time.Time) error {
	f.lastLoginSet = true
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, _, hash string, _ time.Time) error {
	f.passwordHash = hash
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedAllFor = append(f.revokedAllFor, userID)
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	f.revokedIDs = append(f.revokedIDs, id)
	for _, t := range f.tokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func newAuthTestService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "church-site-api-test",
	})
}

func seedUser(repo *fakeUserRepo, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &models.User{
		ID:           "u-1",
		Email:        "admin@example.org",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	repo.users[user.ID] = user
	return user
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "correct horse")
	svc := newAuthTestService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.True(t, repo.lastLoginSet)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "correct horse")
	svc := newAuthTestService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmailSameError(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthTestService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.org", Password: "whatever"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(repo, "correct horse")
	user.Active = false
	svc := newAuthTestService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "correct horse"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "correct horse")
	svc := newAuthTestService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLogoutRejectsForeignToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "correct horse")
	svc := newAuthTestService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "correct horse"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "u-1"))
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "old password")
	svc := newAuthTestService(repo)

	err := svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{
		OldPassword: "old password",
		NewPassword: "brand new password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.passwordHash)
	assert.Contains(t, repo.revokedAllFor, "u-1")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("brand new password")))
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "correct horse")
	svc := newAuthTestService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	assert.Error(t, err)
}
