package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/middleware"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

type AuthHandler struct {
	passwordService *service.PasswordAuthService
	requireAuth     func(http.Handler) http.Handler
	rateLimit       func(http.Handler) http.Handler
}

// NewAuthHandler takes the bearer-auth middleware for the session routes and
// the per-IP limiter for the credential-accepting routes.
func NewAuthHandler(
	passwordService *service.PasswordAuthService,
	requireAuth func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
) *AuthHandler {
	return &AuthHandler{
		passwordService: passwordService,
		requireAuth:     requireAuth,
		rateLimit:       rateLimit,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/profile", h.Profile)
		r.Get("/verify", h.Verify)
	})

	return r
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.passwordService.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.Account.Profile(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.passwordService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.Account.Profile(),
	})
}

// Profile is the endpoint the client session monitor polls. Any rejection of
// the credential or the account surfaces as 401 from the auth middleware.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: account.Profile()})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  account.Profile(),
	})
}
