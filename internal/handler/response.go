package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// decodeJSON reads the request body into dst. Bodies cut off by the body
// limit come back as PayloadTooLarge.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.PayloadTooLarge()
		}
		return apperrors.ValidationError("Invalid request body")
	}
	return nil
}

func accountIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		return "", apperrors.InvalidInput("id", "must be a UUID")
	}
	return id, nil
}

type authResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      model.Profile `json:"user"`
}

type userResponse struct {
	User model.Profile `json:"user"`
}

// adminAccount is the admin console view of an account. Credentials and the
// external subject are reduced to an origin label.
type adminAccount struct {
	model.Profile
	Origin        model.AuthOrigin `json:"origin"`
	Active        bool             `json:"active"`
	PlanUpdatedAt any              `json:"planUpdatedAt"`
	LastLoginAt   any              `json:"lastLoginAt"`
	DeactivatedAt any              `json:"deactivatedAt"`
	CreatedAt     string           `json:"createdAt"`
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func formatAdminAccount(a *model.Account) adminAccount {
	return adminAccount{
		Profile:       a.Profile(),
		Origin:        a.Origin(),
		Active:        a.IsActive(),
		PlanUpdatedAt: formatTime(a.PlanUpdatedAt),
		LastLoginAt:   formatTime(a.LastLoginAt),
		DeactivatedAt: formatTime(a.DeactivatedAt),
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}
