package transport

import (
	"time"

	"github.com/Skotchmaster/partners_pos/services/auth/internal/models"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateOperatorRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role"     validate:"required,oneof=admin manager cashier"`
}

type TokenPair struct {
	AccessToken      string           `json:"access_token"`
	RefreshToken     string           `json:"refresh_token"`
	TokenType        string           `json:"token_type"`
	ExpiresIn        int64            `json:"expires_in"`
	AccessExpiresAt  time.Time        `json:"access_expires_at"`
	RefreshExpiresAt time.Time        `json:"refresh_expires_at"`
	Operator         *models.Operator `json:"operator"`
}
