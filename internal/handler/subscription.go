package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/middleware"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

type SubscriptionHandler struct {
	accountService *service.AccountService
}

func NewSubscriptionHandler(accountService *service.AccountService) *SubscriptionHandler {
	return &SubscriptionHandler{accountService: accountService}
}

// Routes must be mounted behind the auth middleware.
func (h *SubscriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.Status)
	return r
}

func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, h.accountService.Subscription(account))
}
