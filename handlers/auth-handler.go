package handlers

import (
	"context"
	"net/http"

	"profile-service/models"
)

type AccountService interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, identityID string) (*models.User, error)
	DeleteAccount(ctx context.Context, identityID string) error
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// RegisterHandler handles POST /api/users.
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	token, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, JSONResponse{"token": token})
}

// LoginHandler handles POST /api/auth.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, JSONResponse{"token": token})
}

// CurrentUserHandler handles GET /api/auth.
func (h *AuthHandler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	user, err := h.accounts.Authenticate(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}
