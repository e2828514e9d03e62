package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/authservice/internal/logger"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/repository/postgres"
	"github.com/clinicore/authservice/internal/service/auth"
	"github.com/clinicore/authservice/internal/service/auth/tokenmanager"
	"github.com/clinicore/authservice/internal/testutil"
)

func Test_GuardedRoutes(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(url string, s *auth.AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Token())
			require.NoError(t, err)

			s, err := auth.NewService(auth.Config{}, tm, storage)
			require.NoError(t, err)

			router := NewRouter(NewAuth(s), s, storage.User(), logger.NewNoOpLogger())
			srv := httptest.NewServer(router)
			defer srv.Close()

			fn(srv.URL, s)
		})
	}

	get := func(t *testing.T, url string, token string) (*http.Response, string) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	registerAs := func(t *testing.T, s *auth.AuthService, email string, role models.Role) models.TokenPair {
		_, pair, err := s.Register(t.Context(), auth.RegisterParams{
			FirstName: "Test",
			LastName:  "User",
			Email:     email,
			Password:  "StrongEnoughPassword",
			Role:      role,
		})
		require.NoError(t, err)
		return pair
	}

	t.Run("health is public", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			resp, body := get(t, url+"/health", "")

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.JSONEq(t, `{"status": "OK"}`, body)
		})
	})

	t.Run("doctor can read patients but not admin routes", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			pair := registerAs(t, s, "doctor@example.com", models.RoleDoctor)

			resp, body := get(t, url+"/patients", pair.Access.Value)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{
				"resource": "patients",
				"requested_by": "doctor@example.com",
				"role": "doctor"
			}`, body)

			resp, body = get(t, url+"/admin/users", pair.Access.Value)
			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("admin can list users", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			registerAs(t, s, "doctor@example.com", models.RoleDoctor)
			pair := registerAs(t, s, "admin@example.com", models.RoleAdmin)

			resp, body := get(t, url+"/admin/users", pair.Access.Value)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			assert.Contains(t, body, "doctor@example.com")
			assert.Contains(t, body, "admin@example.com")
			assert.NotContains(t, body, "password", "hashes must not leak through the admin listing")
		})
	})

	t.Run("receptionist sees appointments but not patients", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			pair := registerAs(t, s, "front@example.com", models.RoleReceptionist)

			resp, body := get(t, url+"/appointments", pair.Access.Value)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = get(t, url+"/patients", pair.Access.Value)
			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("no token is unauthorized", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			resp, body := get(t, url+"/patients", "")
			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			pair := registerAs(t, s, "doctor@example.com", models.RoleDoctor)

			resp, body := get(t, url+"/patients", pair.Refresh.Value)
			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "refresh token must not open resource routes. Body: %s", body)
		})
	})

	t.Run("logged out token is rejected", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			pair := registerAs(t, s, "doctor@example.com", models.RoleDoctor)

			err := s.Logout(t.Context(), pair.Access.Value, pair.Refresh.Value)
			require.NoError(t, err)

			resp, body := get(t, url+"/patients", pair.Access.Value)
			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "revoked token must be rejected. Body: %s", body)
		})
	})
}
