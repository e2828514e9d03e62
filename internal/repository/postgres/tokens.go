package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/models"
)

type TokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveToken
INSERT INTO tokens (token, user_uuid, type, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING token, user_uuid, type, created_at, expires_at
`

func (r *TokenRepo) Save(ctx context.Context, token models.Token) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, saveToken, token.Token, token.UserUUID, token.Type, token.CreatedAt, token.ExpiresAt)
	saved, err := pgx.CollectOneRow(rows, rowToToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const getToken = `-- name: GetToken
SELECT token, user_uuid, type, created_at, expires_at
FROM tokens
WHERE token = $1 AND type = $2 AND user_uuid = $3
`

// Get the row matching value, type and owner
// Revocation check: a deleted (or never saved) token has no row here
func (r *TokenRepo) Get(ctx context.Context, tokenString string, tokenType models.TokenType, userUUID uuid.UUID) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString, tokenType, userUUID)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const getTokenByValue = `-- name: GetTokenByValue
SELECT token, user_uuid, type, created_at, expires_at
FROM tokens
WHERE token = $1
`

func (r *TokenRepo) GetByValue(ctx context.Context, tokenString string) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByValue, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const deleteToken = `-- name: DeleteToken
DELETE FROM tokens
WHERE token = $1
`

// Delete the row by exact token value
// Row deletion is atomic: of two concurrent deletes of the same token
// exactly one observes an affected row, the other gets ErrTokenNotFound
func (r *TokenRepo) Delete(ctx context.Context, tokenString string) error {
	tag, err := r.DB.Exec(ctx, deleteToken, tokenString)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}

	return nil
}

const deleteExpiredTokens = `-- name: DeleteExpiredTokens
DELETE FROM tokens
WHERE expires_at < $1
`

func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredTokens, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func rowToToken(row pgx.CollectableRow) (models.Token, error) {
	var t models.Token
	err := row.Scan(&t.Token, &t.UserUUID, &t.Type, &t.CreatedAt, &t.ExpiresAt)
	return t, err
}
