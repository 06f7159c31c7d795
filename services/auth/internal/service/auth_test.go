package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/models"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/transport"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	ctx := context.Background()

	db, err := pkgdb.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(ctx))

	return &AuthService{
		Repo:          r,
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func seedOperator(t *testing.T, svc *AuthService, username, role string) *models.Operator {
	t.Helper()
	op, err := svc.CreateOperator(context.Background(), transport.CreateOperatorRequest{
		Username: username,
		Password: "Secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return op
}

func TestAuthService_CreateAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	op := &models.Operator{ID: 7, Username: "mona", Role: tokens.RoleManager}
	exp := time.Now().Add(15 * time.Minute).UTC()

	token, err := svc.CreateAccessToken(op, exp)
	require.NoError(t, err)

	claims, err := tokens.AccessClaimsFromToken(token, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, tokens.RoleManager, claims.Role)
	assert.Equal(t, "mona", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAuthService_CreateRefreshToken_StoresHashOnly(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	exp := time.Now().Add(24 * time.Hour).UTC()

	token, row, err := svc.CreateRefreshToken(3, exp)
	require.NoError(t, err)

	claims, err := tokens.RefreshClaimsFromToken(token, svc.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "3", claims.Subject)
	assert.Equal(t, claims.ID, row.JTI)
	assert.Equal(t, tokens.Sha256Hex(token), row.TokenHash)
	assert.NotEqual(t, token, row.TokenHash)
	assert.WithinDuration(t, exp, row.ExpiresAt, time.Second)
}

func TestAuthService_Login_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "", password: "secret"},
		{name: "blank username", username: "   ", password: "secret"},
		{name: "empty password", username: "user", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(ctx, tt.username, tt.password)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()
	op := seedOperator(t, svc, "cashier1", tokens.RoleCashier)

	_, err := svc.Login(ctx, "cashier1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	pair, err := svc.Login(ctx, "cashier1", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.Equal(t, op.ID, pair.Operator.ID)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, tokens.RoleCashier, claims.Role)

	rc, err := tokens.RefreshClaimsFromToken(pair.RefreshToken, svc.RefreshSecret)
	require.NoError(t, err)
	stored, err := svc.Repo.FindRefreshByJTI(ctx, rc.ID)
	require.NoError(t, err)
	assert.False(t, stored.Revoked)
	assert.Equal(t, op.ID, stored.OperatorID)
}

func TestAuthService_Login_InactiveOperator(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()
	op := seedOperator(t, svc, "gone", tokens.RoleCashier)
	require.NoError(t, svc.Repo.DB.Model(op).Update("active", false).Error)

	_, err := svc.Login(ctx, "gone", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh_RotatesSingleUse(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()
	seedOperator(t, svc, "mgr", tokens.RoleManager)

	first, err := svc.Login(ctx, "mgr", "Secret123")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.Refresh(ctx, "not-a-valid-jwt")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// signed correctly but never stored
	seedOperator(t, svc, "ghost", tokens.RoleCashier)
	op, err := svc.Repo.OperatorByUsername(ctx, "ghost")
	require.NoError(t, err)
	token, _, err := svc.CreateRefreshToken(op.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_LogOut(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()
	seedOperator(t, svc, "leaver", tokens.RoleCashier)

	require.NoError(t, svc.LogOut(ctx, ""))

	pair, err := svc.Login(ctx, "leaver", "Secret123")
	require.NoError(t, err)
	require.NoError(t, svc.LogOut(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_CreateOperator(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()
	seedOperator(t, svc, "dup", tokens.RoleCashier)

	_, err := svc.CreateOperator(ctx, transport.CreateOperatorRequest{Username: "dup", Password: "Secret123", Role: tokens.RoleCashier})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateOperator(ctx, transport.CreateOperatorRequest{Username: "x1", Password: "Secret123", Role: "owner"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOperator(ctx, transport.CreateOperatorRequest{Username: "x2", Password: "", Role: tokens.RoleCashier})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_BootstrapAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.BootstrapAdmin(ctx, "root", "")
	assert.ErrorIs(t, err, ErrValidation)

	created, err := svc.BootstrapAdmin(ctx, "root", "Secret123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.BootstrapAdmin(ctx, "root2", "Secret123")
	require.NoError(t, err)
	assert.False(t, created)

	op, err := svc.Repo.OperatorByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, tokens.RoleAdmin, op.Role)
}
