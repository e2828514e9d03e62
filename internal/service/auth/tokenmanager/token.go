package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/repository"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 30 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Signed payload of both token kinds
// Wire contract: sub (user uuid), iat, exp, type; jti is added so two
// tokens minted within the same second still get distinct values
type Claims struct {
	jwt.RegisteredClaims
	TokenType models.TokenType `json:"type"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secret key to sign token payloads
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issues signed token pairs and verifies presented tokens against the
// token store. Both operations go through the store: a pair is not
// issued until both rows are persisted, and a token without a row does
// not verify no matter how valid its signature is.
type TokenManager struct {
	key string
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	tokenRepo repository.TokenRepo
}

func New(cfg Config, tokenRepo repository.TokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		tokenRepo:  tokenRepo,
	}, nil
}

// Mint, persist and return an access/refresh token pair for the user
// Issuance is complete only when both rows are saved: a save error
// fails the whole call and the caller never sees the tokens
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	if user.UUID == uuid.Nil {
		return pair, fmt.Errorf("user has no uuid: %w", apperrors.ErrInvalidState)
	}

	now := time.Now().Truncate(time.Second)

	access, err := m.generate(ctx, user.UUID, models.TokenTypeAccess, now, now.Add(m.accessTTL))
	if err != nil {
		return pair, err
	}

	refresh, err := m.generate(ctx, user.UUID, models.TokenTypeRefresh, now, now.Add(m.refreshTTL))
	if err != nil {
		return pair, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Mint a single signed token and persist its row before returning it
func (m *TokenManager) generate(ctx context.Context, userUUID uuid.UUID, tokenType models.TokenType, now time.Time, expiresAt time.Time) (models.IssuedToken, error) {
	var issued models.IssuedToken

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   userUUID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TokenType: tokenType,
		},
	)
	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return issued, fmt.Errorf("error while signing %s token. Err: %w", tokenType, err)
	}

	_, err = m.tokenRepo.Save(ctx, models.Token{
		Token:     signed,
		UserUUID:  userUUID,
		Type:      tokenType,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return issued, fmt.Errorf("error while saving %s token: %w", tokenType, apperrors.ErrStorage)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify the token for the declared type and return its store row
// Order matters: signature and expiry first, then the row lookup that
// makes revocation by deletion effective
func (m *TokenManager) Verify(ctx context.Context, tokenString string, tokenType models.TokenType) (models.Token, error) {
	var row models.Token

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return row, fmt.Errorf("token is not valid: %w", apperrors.ErrUnauthenticated)
	}

	if claims.TokenType != tokenType {
		return row, fmt.Errorf("token type mismatch: %w", apperrors.ErrUnauthenticated)
	}

	userUUID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return row, fmt.Errorf("token subject is not a uuid: %w", apperrors.ErrUnauthenticated)
	}

	row, err = m.tokenRepo.Get(ctx, tokenString, tokenType, userUUID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return row, fmt.Errorf("token is revoked or unknown: %w", apperrors.ErrUnauthenticated)
		}
		return row, fmt.Errorf("error while looking up token: %w", err)
	}

	return row, nil
}

// Delete the token row, revoking it for every future verification
func (m *TokenManager) Revoke(ctx context.Context, tokenString string) error {
	return m.tokenRepo.Delete(ctx, tokenString)
}
