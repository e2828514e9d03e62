package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (uuid, first_name, last_name, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING uuid, created_at, first_name, last_name, email, password_hash, role
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), arg.FirstName, arg.LastName, arg.Email, arg.PasswordHash, arg.Role)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByUUID = `-- name: GetUserByUUID
SELECT uuid, created_at, first_name, last_name, email, password_hash, role
FROM users
WHERE uuid = $1
`

func (r *UserRepo) GetUserByUUID(ctx context.Context, userUUID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUUID, userUUID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT uuid, created_at, first_name, last_name, email, password_hash, role
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2
WHERE uuid = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userUUID uuid.UUID, passwordHash string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userUUID, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

const listUsers = `-- name: ListUsers
SELECT uuid, created_at, first_name, last_name, email, password_hash, role
FROM users
ORDER BY created_at, email
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.UUID, &u.CreatedAt, &u.FirstName, &u.LastName, &u.Email, &u.HashedPassword, &u.Role)
	return u, err
}
