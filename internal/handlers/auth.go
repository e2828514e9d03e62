package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/authservice/internal/apperrors"
	"github.com/clinicore/authservice/internal/handlers/middleware"
	"github.com/clinicore/authservice/internal/handlers/render"
	"github.com/clinicore/authservice/internal/handlers/userctx"
	"github.com/clinicore/authservice/internal/models"
	"github.com/clinicore/authservice/internal/service/auth"
)

type authService interface {
	// Register user and issue its first token pair
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.User, models.TokenPair, error)

	// Verify credentials and issue a token pair
	// Has to return apperrors.ErrInvalidCredentials without revealing
	// whether the email is registered
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Revoke both tokens of the presented pair
	Logout(ctx context.Context, accessToken string, refreshToken string) error

	// Rotate the refresh token: consume it and issue a new pair
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Replace the password after verifying the old one
	ChangePassword(ctx context.Context, userUUID uuid.UUID, oldPassword string, newPassword string) error

	// Report whether the email is taken
	IsEmailRegistered(ctx context.Context, email string) (bool, error)
}

type AuthHandler struct {
	authService authService
}

func NewAuth(s authService) *AuthHandler {
	return &AuthHandler{authService: s}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		FirstName string `json:"first_name" validate:"required,max=50"`
		LastName  string `json:"last_name" validate:"required,max=50"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=8"`
		Role      string `json:"role" validate:"required,oneof=admin doctor nurse receptionist"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Register(r.Context(), auth.RegisterParams{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		Password:  data.Password,
		Role:      models.Role(data.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Email already taken", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONStatus(w, AuthResponse{User: toUserResponse(user), Tokens: toTokensResponse(pair)}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, AuthResponse{User: toUserResponse(user), Tokens: toTokensResponse(pair)})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	accessToken, ok := middleware.BearerToken(r)
	if !ok {
		render.ServiceError(w, "Access token and refresh token are required for logout", http.StatusBadRequest)
		return
	}

	err = h.authService.Logout(r.Context(), accessToken, data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidRequest):
			render.ServiceError(w, "Access token and refresh token are required for logout", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrTokenNotFound):
			render.ServiceError(w, "Invalid tokens", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.NoContent(w)
}

func (h *AuthHandler) refreshTokens(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusBadGateway)
		}
		return
	}

	render.JSON(w, toTokensResponse(pair))
}

func (h *AuthHandler) checkEmail(w http.ResponseWriter, r *http.Request) {
	type CheckEmailRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
	type CheckEmailResponse struct {
		Exists bool `json:"exists"`
	}

	data, err := render.BindAndValidate[CheckEmailRequest](w, r)
	if err != nil {
		return
	}

	exists, err := h.authService.IsEmailRegistered(r.Context(), data.Email)
	if err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, CheckEmailResponse{Exists: exists})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type ChangePasswordRequest struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}
	type ChangePasswordResponse struct {
		Message string `json:"message"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.authService.ChangePassword(r.Context(), user.UUID, data.OldPassword, data.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Old password is incorrect", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, ChangePasswordResponse{Message: "Password changed successfully"})
}

type UserResponse struct {
	UUID      string    `json:"uuid"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type TokensResponse struct {
	Access  TokenResponse `json:"access"`
	Refresh TokenResponse `json:"refresh"`
}

type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// The password hash never crosses the HTTP boundary
func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		UUID:      u.UUID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toTokensResponse(pair models.TokenPair) TokensResponse {
	return TokensResponse{
		Access:  TokenResponse{Token: pair.Access.Value, Expires: pair.Access.ExpiresAt},
		Refresh: TokenResponse{Token: pair.Refresh.Value, Expires: pair.Refresh.ExpiresAt},
	}
}
