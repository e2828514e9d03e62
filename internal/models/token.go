package models

import (
	"time"

	"github.com/google/uuid"
)

// Token kind. A token is never accepted for a purpose other than its
// declared type.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// Persisted token row. The row is the source of truth for revocation:
// a structurally valid JWT without a matching row is rejected.
type Token struct {
	Token     string
	UserUUID  uuid.UUID
	Type      TokenType
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Pair of tokens returned to the user on login, register or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
