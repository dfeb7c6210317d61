package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

// OAuthHandler drives the browser through the provider round trip and hands
// the resulting credential to the client app.
type OAuthHandler struct {
	oauthService  *service.OAuthService
	clientBaseURL string
}

func NewOAuthHandler(oauthService *service.OAuthService, clientBaseURL string) *OAuthHandler {
	return &OAuthHandler{
		oauthService:  oauthService,
		clientBaseURL: clientBaseURL,
	}
}

func (h *OAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/google", h.GoogleAuth)
	r.Get("/google/callback", h.GoogleCallback)

	return r
}

// GoogleAuth starts sign-in. ?redirect=<path> is remembered with the state and
// returned to the client as next.
func (h *OAuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.oauthService.GetAuthURL(r.Context(), r.URL.Query().Get("redirect"))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			log.Warn().Msg("Google sign-in requested but provider is not configured")
		} else {
			log.Error().Err(err).Msg("failed to generate Google auth URL")
		}
		h.fail(w, r, service.FailureOAuthFailed)
		return
	}

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errMsg := q.Get("error"); errMsg != "" {
		log.Warn().Str("error", errMsg).Msg("OAuth error from provider")
		h.fail(w, r, service.FailureOAuthDenied)
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		h.fail(w, r, service.FailureMissingParams)
		return
	}

	result, err := h.oauthService.HandleCallback(r.Context(), code, state)
	if err != nil {
		reason := service.FailureReason(err)
		log.Warn().Err(err).Str("reason", reason).Msg("OAuth callback failed")
		h.fail(w, r, reason)
		return
	}

	target, err := service.BuildHandoffURL(h.clientBaseURL, result.Token, result.Account.Profile(), result.RedirectPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to build handoff URL")
		h.fail(w, r, service.FailureReason(err))
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventCredentialIssue,
		AccountID: result.Account.ID,
		Details: map[string]interface{}{
			"channel":     "handoff",
			"fingerprint": util.Fingerprint(result.Token),
		},
	})

	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, reason string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, service.BuildFailureURL(h.clientBaseURL, reason), http.StatusTemporaryRedirect)
}
