package handlers

import (
	"context"
	"net/http"

	"github.com/clinicore/authservice/internal/handlers/middleware"
	"github.com/clinicore/authservice/internal/handlers/render"
	"github.com/clinicore/authservice/internal/handlers/userctx"
	"github.com/clinicore/authservice/internal/logger"
	"github.com/clinicore/authservice/internal/models"
)

// Session authenticator used by the authorization guard
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string, tokenType models.TokenType) (models.User, error)
}

type userLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authHandler *AuthHandler, authn Authenticator, users userLister, log logger.Logger) http.Handler {
	guard := func(roles ...models.Role) func(http.Handler) http.Handler {
		return middleware.Auth(authn, roles...)
	}
	anyAuthenticated := guard()

	mux := http.NewServeMux()

	mux.Handle("GET /health", handleHealth())

	mux.HandleFunc("POST /auth/register", authHandler.register)
	mux.HandleFunc("POST /auth/login", authHandler.login)
	mux.HandleFunc("POST /auth/refresh-tokens", authHandler.refreshTokens)
	mux.HandleFunc("POST /auth/check-email", authHandler.checkEmail)
	mux.Handle("POST /auth/logout", anyAuthenticated(http.HandlerFunc(authHandler.logout)))
	mux.Handle("POST /auth/change-password", anyAuthenticated(http.HandlerFunc(authHandler.changePassword)))

	// Records endpoints gated by role. The records modules themselves
	// live in other services, these routes stand in for them.
	mux.Handle("GET /patients", guard(models.RoleAdmin, models.RoleDoctor, models.RoleNurse)(handleResource("patients")))
	mux.Handle("GET /appointments", guard(models.RoleAdmin, models.RoleDoctor, models.RoleNurse, models.RoleReceptionist)(handleResource("appointments")))
	mux.Handle("GET /admin/users", guard(models.RoleAdmin)(handleListUsers(users)))

	return chain(mux,
		middleware.LoggerMiddleware(log),
	)
}

func handleHealth() http.Handler {
	type HealthResponse struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, HealthResponse{Status: "OK"})
	})
}

// Placeholder for a gated records module: confirms who got through
func handleResource(name string) http.Handler {
	type ResourceResponse struct {
		Resource    string `json:"resource"`
		RequestedBy string `json:"requested_by"`
		Role        string `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, ResourceResponse{
			Resource:    name,
			RequestedBy: user.Email,
			Role:        string(user.Role),
		})
	})
}

func handleListUsers(users userLister) http.Handler {
	type ListUsersResponse struct {
		Users []UserResponse `json:"users"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := users.ListUsers(r.Context())
		if err != nil {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := ListUsersResponse{Users: make([]UserResponse, 0, len(all))}
		for _, u := range all {
			resp.Users = append(resp.Users, toUserResponse(u))
		}

		render.JSON(w, resp)
	})
}
