package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/clinicore/authservice/internal/handlers"
	"github.com/clinicore/authservice/internal/logger"
	"github.com/clinicore/authservice/internal/repository"
	"github.com/clinicore/authservice/internal/repository/postgres"
	"github.com/clinicore/authservice/internal/service/auth"
	"github.com/clinicore/authservice/internal/service/auth/tokenmanager"
	"github.com/clinicore/authservice/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	Storage     repository.Storage
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The whole request flow happens inside the transaction, so tests never leak rows
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, s Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		storage := postgres.NewStorage(tx)

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Token())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error")

		// Complete all together as router
		router := handlers.NewRouter(
			handlers.NewAuth(as),
			as,
			storage.User(),
			logger.NewNoOpLogger(),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			Storage:     storage,
		})
	})
}
