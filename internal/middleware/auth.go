package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

type contextKey string

const AccountContextKey contextKey = "account"

func GetAccount(ctx context.Context) *model.Account {
	if account, ok := ctx.Value(AccountContextKey).(*model.Account); ok {
		return account
	}
	return nil
}

// WithAccount stores account in ctx the way AuthMiddleware does.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, AccountContextKey, account)
}

// Authenticator resolves a bearer credential to a live account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Account, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		account, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			eventType := audit.EventAuthFailure
			if apperrors.HasCode(err, apperrors.ErrCodeAccountDeactivated) {
				eventType = audit.EventDeactivatedAttempt
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    eventType,
				Details: map[string]interface{}{"code": string(apperrors.GetCode(err))},
			})
			httputil.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
	})
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := GetAccount(r.Context())
			if account == nil {
				httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
				return
			}
			if account.Role != role {
				httputil.WriteError(w, apperrors.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the Authorization header only. Credentials in query
// strings end up in access logs.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
