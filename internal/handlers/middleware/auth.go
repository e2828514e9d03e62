package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/clinicore/authservice/internal/handlers/render"
	"github.com/clinicore/authservice/internal/handlers/userctx"
	"github.com/clinicore/authservice/internal/models"
)

type authenticator interface {
	Authenticate(ctx context.Context, tokenString string, tokenType models.TokenType) (models.User, error)
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// Authorization guard over the session authenticator
// Every request is re-verified against the token store independently,
// there is no cross request caching of authentication state.
// Empty allowedRoles means any authenticated identity.
func Auth(authn authenticator, allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := authn.Authenticate(r.Context(), token, models.TokenTypeAccess)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, user.Role) {
				render.ServiceError(w, "You do not have permission to access this resource", http.StatusForbidden)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
