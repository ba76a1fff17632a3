package handler

import (
	"net/http"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	accountSvc *service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountSvc *service.AccountService) *AuthHandler {
	return &AuthHandler{accountSvc: accountSvc}
}

// registerRequest is the JSON request body for POST /auth/register.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// loginRequest is the JSON request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the JSON response for successful auth calls.
type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

// userResponse is the account shape returned to its owner.
type userResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func buildUserResponse(a *domain.Account) userResponse {
	return userResponse{
		UserID:    a.UserID,
		Email:     a.Email,
		Role:      string(a.Role),
		Status:    string(a.CurrentStatus()),
		CreatedAt: a.CreatedAt.UTC().Format(timeLayout),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token, account, err := h.accountSvc.Register(service.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Admin:    req.Admin,
	})
	if err != nil {
		MapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        buildUserResponse(account),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token, account, err := h.accountSvc.Login(req.Email, req.Password)
	if err != nil {
		MapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        buildUserResponse(account),
	})
}
