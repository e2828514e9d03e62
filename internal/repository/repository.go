package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/authservice/internal/models"
)

type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         models.Role
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by uuid or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByUUID(ctx context.Context, userUUID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Replace the stored password hash
	// If user not found must return apperrors.ErrUserNotFound
	UpdatePassword(ctx context.Context, userUUID uuid.UUID, passwordHash string) error

	// List all users ordered by creation time
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Token repository interface
// Rows are the source of truth for revocation, so Delete must report
// whether a row was actually removed: two concurrent consumers of the
// same token race on the delete and exactly one wins.
type TokenRepo interface {
	// Persist issued token
	Save(ctx context.Context, token models.Token) (models.Token, error)

	// Get row matching token value, type and owner
	// If no row matches must return apperrors.ErrTokenNotFound
	Get(ctx context.Context, tokenString string, tokenType models.TokenType, userUUID uuid.UUID) (models.Token, error)

	// Get row by token value alone (logout path looks up both halves of
	// the pair by exact value)
	GetByValue(ctx context.Context, tokenString string) (models.Token, error)

	// Delete row by token value
	// If no row was deleted must return apperrors.ErrTokenNotFound
	Delete(ctx context.Context, tokenString string) error

	// Delete rows that expired before the given moment, returns the count
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Storage aggregates repositories over a single connection source
type Storage interface {
	User() UserRepo
	Token() TokenRepo
}
