package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryRevoker is an in-process TokenRevoker for tests
type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemoryRevoker() *memoryRevoker {
	return &memoryRevoker{revoked: make(map[string]time.Duration)}
}

func (m *memoryRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *memoryRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func setupAuthTest(t *testing.T) (*gorm.DB, *service.AuthService, *memoryRevoker) {
	db := testhelpers.SetupTestDatabase(t)
	revoker := newMemoryRevoker()
	return db, service.NewAuthService(db, "test-secret", time.Hour, revoker, nil), revoker
}

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "s3cret-pass",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()

	user, err := authSvc.Register(ctx, registerRequest("cook"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, err := authSvc.Login(ctx, "COOK@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "cook", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterDuplicate(t *testing.T) {
	_, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerRequest("cook"))
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, registerRequest("cook"))
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerRequest("cook"))
	require.NoError(t, err)

	_, err = authSvc.Login(ctx, "cook@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	db, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "cook")

	other := service.NewAuthService(db, "another-secret", time.Hour, nil, nil)
	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, err = authSvc.ValidateToken(ctx, token)
	assert.Error(t, err)

	_, err = authSvc.ValidateToken(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "cook")

	authSvc := service.NewAuthService(db, "test-secret", -time.Minute, nil, nil)
	token, err := authSvc.GenerateToken(user)
	require.NoError(t, err)

	_, err = authSvc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	db, authSvc, revoker := setupAuthTest(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "cook")

	token, err := authSvc.GenerateToken(user)
	require.NoError(t, err)
	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, claims))
	assert.Greater(t, revoker.revoked[claims.ID], time.Duration(0))

	_, err = authSvc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	// A fresh login still works
	fresh, err := authSvc.GenerateToken(user)
	require.NoError(t, err)
	_, err = authSvc.ValidateToken(ctx, fresh)
	assert.NoError(t, err)
}

func TestLogoutWithoutRevoker(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "cook")
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil, nil)
	ctx := context.Background()

	token, err := authSvc.GenerateToken(user)
	require.NoError(t, err)
	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)

	assert.NoError(t, authSvc.Logout(ctx, claims))
}

func TestSetPassword(t *testing.T) {
	db, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "cook")

	err := authSvc.SetPassword(ctx, user.ID, "wrong", "new-password")
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_password", verr.Field)

	require.NoError(t, authSvc.SetPassword(ctx, user.ID, testhelpers.TestPassword, "new-password"))

	_, err = authSvc.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = authSvc.Login(ctx, user.Email, "new-password")
	assert.NoError(t, err)

	assert.ErrorIs(t, authSvc.SetPassword(ctx, 999, "x", "y"), service.ErrNotFound)
}
