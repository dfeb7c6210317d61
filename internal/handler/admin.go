package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/middleware"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Routes must be mounted behind the auth middleware and RequireRole(admin).
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/stats", h.Stats)

	// Users
	r.Get("/users", h.ListUsers)
	r.Post("/users/invite", h.InviteUser)
	r.Post("/users/{id}/deactivate", h.DeactivateUser)
	r.Post("/users/{id}/reactivate", h.ReactivateUser)
	r.Put("/users/{id}/role", h.SetRole)
	r.Put("/users/{id}/plan", h.SetPlan)

	// Contacts
	r.Get("/contacts", h.ListContacts)

	return r
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	accounts, total, err := h.adminService.ListAccounts(r.Context(), p.Limit, p.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := make([]adminAccount, len(accounts))
	for i := range accounts {
		items[i] = formatAdminAccount(&accounts[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

func (h *AdminHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req service.InviteInput
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.adminService.Invite(r.Context(), middleware.GetAccount(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, formatAdminAccount(account))
}

func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.adminService.SetActive(r.Context(), middleware.GetAccount(r.Context()), id, active)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatAdminAccount(account))
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req struct {
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.adminService.SetRole(r.Context(), middleware.GetAccount(r.Context()), id, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatAdminAccount(account))
}

func (h *AdminHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req struct {
		Plan model.Plan `json:"plan"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.adminService.SetPlan(r.Context(), middleware.GetAccount(r.Context()), id, req.Plan)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatAdminAccount(account))
}

func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	contacts, total, err := h.adminService.ListContacts(r.Context(), p.Limit, p.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": contacts,
		"total": total,
	})
}
