package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/repository"
	"github.com/clinicore/authservice/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	params := repository.CreateUserParams{
		FirstName:    "Jane",
		LastName:     "Smith",
		Email:        "doctor@example.com",
		PasswordHash: "hashed_password",
		Role:         models.RoleDoctor,
	}

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			got, err := repo.CreateUser(t.Context(), params)

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, got.UUID, "uuid should be assigned")
			require.Equal(t, "doctor@example.com", got.Email)
			require.Equal(t, "hashed_password", got.HashedPassword)
			require.Equal(t, models.RoleDoctor, got.Role)
			require.Equal(t, "Jane", got.FirstName)
			require.Equal(t, "Smith", got.LastName)
			require.False(t, got.CreatedAt.IsZero(), "created at should be set by the db")
		})
	})

	t.Run("create duplicate email fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			second := params
			second.FirstName = "Other"
			_, err = repo.CreateUser(t.Context(), second)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("email lookup is case sensitive", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			_, err = repo.GetUserByEmail(t.Context(), "Doctor@Example.com")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			got, err := repo.GetUserByEmail(t.Context(), "doctor@example.com")
			require.NoError(t, err)
			assert.Equal(t, "doctor@example.com", got.Email)
		})
	})

	t.Run("get user by uuid", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			got, err := repo.GetUserByUUID(t.Context(), created.UUID)
			require.NoError(t, err)
			assert.Equal(t, created.UUID, got.UUID)
			assert.Equal(t, created.Email, got.Email)
		})
	})

	t.Run("get unknown user fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByUUID(t.Context(), uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = repo.GetUserByEmail(t.Context(), "nobody@example.com")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("update password", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			err = repo.UpdatePassword(t.Context(), created.UUID, "new_hash")
			require.NoError(t, err)

			got, err := repo.GetUserByUUID(t.Context(), created.UUID)
			require.NoError(t, err)
			assert.Equal(t, "new_hash", got.HashedPassword)
		})
	})

	t.Run("update password of unknown user fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			err := repo.UpdatePassword(t.Context(), uuid.New(), "new_hash")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("list users ordered by creation", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			second := params
			second.Email = "nurse@example.com"
			second.Role = models.RoleNurse
			_, err = repo.CreateUser(t.Context(), second)
			require.NoError(t, err)

			users, err := repo.ListUsers(t.Context())
			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.Equal(t, "doctor@example.com", users[0].Email)
			assert.Equal(t, "nurse@example.com", users[1].Email)
		})
	})
}
