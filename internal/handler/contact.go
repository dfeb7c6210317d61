package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (h *ContactHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	return r
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.ContactInput
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	contact, err := h.contactService.Submit(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      contact.ID,
		"message": "Thanks, we will get back to you soon.",
	})
}
