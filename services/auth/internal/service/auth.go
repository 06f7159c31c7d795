package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/pkg/hash"
	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/models"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/transport"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
)

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return 15 * time.Minute
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return 7 * 24 * time.Hour
}

func subject(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func (s *AuthService) CreateAccessToken(op *models.Operator, exp time.Time) (string, error) {
	return tokens.Sign(tokens.AccessClaims{
		Role:     op.Role,
		Username: op.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject(op.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, s.AccessSecret)
}

// CreateRefreshToken returns the signed token together with the row that
// must be stored for it.
func (s *AuthService) CreateRefreshToken(operatorID uint, exp time.Time) (string, *models.RefreshToken, error) {
	jti := tokens.NewJTI()
	signed, err := tokens.Sign(tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject(operatorID),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, s.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	return signed, &models.RefreshToken{
		OperatorID: operatorID,
		JTI:        jti,
		TokenHash:  tokens.Sha256Hex(signed),
		ExpiresAt:  exp.UTC(),
	}, nil
}

func (s *AuthService) issue(op *models.Operator) (*transport.TokenPair, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(s.accessTTL())
	refreshExp := now.Add(s.refreshTTL())

	access, err := s.CreateAccessToken(op, accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, row, err := s.CreateRefreshToken(op.ID, refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &transport.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.accessTTL().Seconds()),
		AccessExpiresAt:  accessExp.UTC(),
		RefreshExpiresAt: refreshExp.UTC(),
		Operator:         op,
	}, row, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*transport.TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}

	op, err := s.Repo.OperatorByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_failed", "reason", "unknown operator")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !op.Active || !hash.CheckPassword(op.PasswordHash, password) {
		l.Warn("login_failed", "reason", "bad password or inactive operator")
		return nil, ErrInvalidCredentials
	}

	pair, row, err := s.issue(op)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefresh(ctx, row); err != nil {
		return nil, err
	}
	l.Info("login_success", "operator_id", op.ID, "role", op.Role)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so replaying it fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidToken
	}

	op, err := s.Repo.OperatorByID(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !op.Active {
		return nil, ErrInvalidToken
	}

	pair, next, err := s.issue(op)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefresh(ctx, claims.ID, tokens.Sha256Hex(refreshToken), next)
	if errors.Is(err, repo.ErrTokenInvalid) {
		l.Warn("refresh_rejected", "operator_id", op.ID, "jti", claims.ID)
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	l.Info("refresh_success", "operator_id", op.ID)
	return pair, nil
}

// LogOut revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, tokens.Sha256Hex(refreshToken))
}

func (s *AuthService) CreateOperator(ctx context.Context, req transport.CreateOperatorRequest) (*models.Operator, error) {
	l := logging.FromContext(ctx).With("svc", "auth.create_operator")

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrValidation)
	}
	switch req.Role {
	case tokens.RoleAdmin, tokens.RoleManager, tokens.RoleCashier:
	default:
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if errors.Is(err, hash.ErrEmptyPassword) {
		return nil, fmt.Errorf("password is required: %w", ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	op := &models.Operator{
		Username:     username,
		PasswordHash: pwHash,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.Repo.CreateOperator(ctx, op); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("operator %q already exists: %w", username, ErrConflict)
		}
		return nil, err
	}
	l.Info("operator_created", "operator_id", op.ID, "role", op.Role)
	return op, nil
}

func (s *AuthService) Me(ctx context.Context, id uint) (*models.Operator, error) {
	op, err := s.Repo.OperatorByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("operator %d: %w", id, ErrNotFound)
	}
	return op, err
}

// BootstrapAdmin creates the first admin when none exists yet. It reports
// whether an operator was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.Repo.CountByRole(ctx, tokens.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if password == "" {
		return false, fmt.Errorf("no admin exists and BOOTSTRAP_ADMIN_PASSWORD is empty: %w", ErrValidation)
	}
	_, err = s.CreateOperator(ctx, transport.CreateOperatorRequest{
		Username: username,
		Password: password,
		Role:     tokens.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
