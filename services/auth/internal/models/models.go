package models

import "time"

type Operator struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null"                     json:"-"`
	Role         string    `gorm:"size:16;not null"             json:"role"`
	Active       bool      `gorm:"not null"                     json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken stores only the SHA-256 of the issued token.
type RefreshToken struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	OperatorID uint      `gorm:"index;not null"                json:"operator_id"`
	JTI        string    `gorm:"size:64;uniqueIndex;not null"  json:"jti"`
	TokenHash  string    `gorm:"size:64;uniqueIndex;not null"  json:"-"`
	ExpiresAt  time.Time `gorm:"not null"                      json:"expires_at"`
	Revoked    bool      `gorm:"not null"                      json:"revoked"`
	CreatedAt  time.Time `json:"created_at"`
}
