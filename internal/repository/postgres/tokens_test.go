package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_TokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	token := models.Token{
		Token:     "signed-token-value",
		UserUUID:  uuid.New(),
		Type:      models.TokenTypeAccess,
		CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
		ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
	}

	t.Run("save token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenRepo{DB: tx}

			got, err := repo.Save(t.Context(), token)

			require.NoError(t, err)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.UserUUID, got.UserUUID)
			require.Equal(t, token.Type, got.Type)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
		})
	})

	t.Run("save duplicate value fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenRepo{DB: tx}

			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			_, err = repo.Save(t.Context(), token)
			require.Error(t, err, "token value is the primary key")
		})
	})

	t.Run("get matches value type and owner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenRepo{DB: tx}
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.Token, models.TokenTypeAccess, token.UserUUID)
			require.NoError(t, err)
			assert.Equal(t, token.Token, got.Token)

			_, err = repo.Get(t.Context(), token.Token, models.TokenTypeRefresh, token.UserUUID)
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound, "type mismatch should not match the row")

			_, err = repo.Get(t.Context(), token.Token, models.TokenTypeAccess, uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound, "owner mismatch should not match the row")
		})
	})

	t.Run("get by value", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenRepo{DB: tx}
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.GetByValue(t.Context(), token.Token)
			require.NoError(t, err)
			assert.Equal(t, token.UserUUID, got.UserUUID)

			_, err = repo.GetByValue(t.Context(), "unknown")
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
		})
	})

	t.Run("delete token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenRepo{DB: tx}
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			err = repo.Delete(t.Context(), token.Token)
			require.NoError(t, err)

			_, err = repo.GetByValue(t.Context(), token.Token)
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound, "deleted row should be gone")

			err = repo.Delete(t.Context(), token.Token)
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound, "second delete should observe absence")
		})
	})

	t.Run("delete expired", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := TokenRepo{DB: tx}

			expired := token
			expired.Token = "expired-token-value"
			expired.ExpiresAt = mustParseTime("2024-01-01 20:00:00Z")

			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)
			_, err = repo.Save(t.Context(), expired)
			require.NoError(t, err)

			deleted, err := repo.DeleteExpired(t.Context(), time.Now())
			require.NoError(t, err)
			assert.Equal(t, int64(1), deleted, "only the expired row should be removed")

			_, err = repo.GetByValue(t.Context(), token.Token)
			assert.NoError(t, err, "live token should survive")
		})
	})
}
