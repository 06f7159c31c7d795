package tests

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/service"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/transport"
)

type integrationEnv struct {
	db  *gorm.DB
	svc *service.AuthService
	rp  *repo.GormRepo
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	dsn := os.Getenv("AUTH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTH_TEST_DATABASE_URL is required for tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := pkgdb.Open(ctx, pkgdb.DriverPostgres, dsn)
	require.NoError(t, err)

	rp := &repo.GormRepo{DB: db}
	require.NoError(t, rp.Migrate(ctx))

	t.Cleanup(func() {
		truncateTables(t, db)
		_ = pkgdb.Close(db)
	})

	return &integrationEnv{
		db: db,
		rp: rp,
		svc: &service.AuthService{
			Repo:          rp,
			AccessSecret:  []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}
}

func truncateTables(t *testing.T, db *gorm.DB) {
	t.Helper()

	db.Exec("TRUNCATE TABLE refresh_tokens, operators RESTART IDENTITY CASCADE")
}

func uniqueUsername() string {
	return "u_" + uuid.NewString()[:8]
}

func createCashier(t *testing.T, env *integrationEnv, username string) {
	t.Helper()
	_, err := env.svc.CreateOperator(context.Background(), transport.CreateOperatorRequest{
		Username: username,
		Password: "Secret123",
		Role:     tokens.RoleCashier,
	})
	require.NoError(t, err)
}

func TestAuthService_CreateOperator_SuccessAndConflict(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	username := uniqueUsername()

	createCashier(t, env, username)

	_, err := env.svc.CreateOperator(ctx, transport.CreateOperatorRequest{
		Username: username,
		Password: "Secret123",
		Role:     tokens.RoleCashier,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestAuthService_Refresh_Success_RotatesToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	username := uniqueUsername()

	createCashier(t, env, username)
	loginRes, err := env.svc.Login(ctx, username, "Secret123")
	require.NoError(t, err)

	oldClaims, err := tokens.RefreshClaimsFromToken(loginRes.RefreshToken, env.svc.RefreshSecret)
	require.NoError(t, err)

	refreshed, err := env.svc.Refresh(ctx, loginRes.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, loginRes.RefreshToken, refreshed.RefreshToken)

	oldTokenModel, err := env.rp.FindRefreshByJTI(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, oldTokenModel.Revoked)

	newClaims, err := tokens.RefreshClaimsFromToken(refreshed.RefreshToken, env.svc.RefreshSecret)
	require.NoError(t, err)
	newTokenModel, err := env.rp.FindRefreshByJTI(ctx, newClaims.ID)
	require.NoError(t, err)
	assert.False(t, newTokenModel.Revoked)
}

func TestAuthService_LogOut_RevokesRefreshToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	username := uniqueUsername()

	createCashier(t, env, username)
	loginRes, err := env.svc.Login(ctx, username, "Secret123")
	require.NoError(t, err)

	require.NoError(t, env.svc.LogOut(ctx, loginRes.RefreshToken))

	res, err := env.svc.Refresh(ctx, loginRes.RefreshToken)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
