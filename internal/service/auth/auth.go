package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/repository"
	"github.com/clinicore/authservice/internal/service/auth/tokenmanager"
)

type Config struct {
	// Hasher to use during registration and login
	// DefaultHasher used if not set
	Hasher PasswordHasher
}

type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
}

// Auth service: credential verification, token pair issuance, session
// authentication and revocation flows
type AuthService struct {
	token     *tokenmanager.TokenManager
	hasher    PasswordHasher
	userRepo  repository.UserRepo
	tokenRepo repository.TokenRepo

	// Hash compared against on the unknown-email login path, so the
	// failure takes as long as a real password mismatch
	decoyHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing decoy hash. Err: %w", err)
	}

	return &AuthService{
		token:     token,
		hasher:    hasher,
		userRepo:  storage.User(),
		tokenRepo: storage.Token(),
		decoyHash: decoyHash,
	}, nil
}

// Create the user and issue its first token pair
// Duplicate email surfaces as apperrors.ErrUserAlreadyExists
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.User{}, pair, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         params.Role,
	})
	if err != nil {
		return models.User{}, pair, err
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, pair, err
	}

	return user, pair, nil
}

// Verify credentials and issue a fresh token pair
// Unknown email and wrong password are indistinguishable: both return
// apperrors.ErrInvalidCredentials after a hash comparison
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		_ = s.hasher.Compare(s.decoyHash, password)
		return models.User{}, pair, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, pair, err
	}

	return user, pair, nil
}

// Resolve the identity behind the bearer token of the declared type
// Every failure (signature, expiry, missing row, missing user) is
// apperrors.ErrUnauthenticated
func (s *AuthService) Authenticate(ctx context.Context, tokenString string, tokenType models.TokenType) (models.User, error) {
	row, err := s.token.Verify(ctx, tokenString, tokenType)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByUUID(ctx, row.UserUUID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("token owner not found: %w", apperrors.ErrUnauthenticated)
		}
		return models.User{}, fmt.Errorf("error while resolving token owner: %w", err)
	}

	return user, nil
}

// Revoke the presented pair by deleting both rows
// Both tokens are required and both rows must exist. The two deletions
// are independent: if the second fails the first is not restored and
// that token stays revoked (see the known partial-logout limitation).
// A second logout with the same tokens fails cause the rows are gone.
func (s *AuthService) Logout(ctx context.Context, accessToken string, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return fmt.Errorf("both access and refresh tokens are required: %w", apperrors.ErrInvalidRequest)
	}

	accessRow, err := s.tokenRepo.GetByValue(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	refreshRow, err := s.tokenRepo.GetByValue(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	if accessRow.Type != models.TokenTypeAccess || refreshRow.Type != models.TokenTypeRefresh {
		return fmt.Errorf("token type mismatch: %w", apperrors.ErrTokenNotFound)
	}

	if err := s.tokenRepo.Delete(ctx, accessToken); err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	return nil
}

// Exchange a refresh token for a new pair
// The consumed token is single use: its row is deleted before the new
// pair is minted, so re-presenting it fails and of two concurrent
// refreshes exactly one wins the row deletion
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.Authenticate(ctx, refreshToken, models.TokenTypeRefresh)
	if err != nil {
		return pair, err
	}

	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return pair, fmt.Errorf("refresh token already consumed: %w", apperrors.ErrUnauthenticated)
		}
		return pair, fmt.Errorf("error while consuming refresh token: %w", err)
	}

	return s.token.GeneratePair(ctx, user)
}

// Replace the user password after verifying the old one
func (s *AuthService) ChangePassword(ctx context.Context, userUUID uuid.UUID, oldPassword string, newPassword string) error {
	user, err := s.userRepo.GetUserByUUID(ctx, userUUID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userUUID, hash)
}

// Report whether the email is taken already (registration form helper)
func (s *AuthService) IsEmailRegistered(ctx context.Context, email string) (bool, error) {
	_, err := s.userRepo.GetUserByEmail(ctx, email)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}
