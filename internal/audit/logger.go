package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailure       EventType = "login_failure"
	EventAccountCreate      EventType = "account_create"
	EventIdentityLink       EventType = "identity_link"
	EventIdentityConflict   EventType = "identity_conflict"
	EventCredentialIssue    EventType = "credential_issue"
	EventOAuthStateInvalid  EventType = "oauth_state_invalid"
	EventAuthFailure        EventType = "auth_failure"
	EventRateLimitExceed    EventType = "rate_limit_exceeded"
	EventAccountDeactivate  EventType = "account_deactivate"
	EventAccountReactivate  EventType = "account_reactivate"
	EventAccountRoleChange  EventType = "account_role_change"
	EventAccountPlanChange  EventType = "account_plan_change"
	EventAccountInvite      EventType = "account_invite"
	EventDeactivatedAttempt EventType = "deactivated_login_attempt"
)

// Event is a security-relevant action. Details must never carry credentials
// or handoff payloads; use util.Fingerprint when correlation is needed.
type Event struct {
	Type      EventType
	AccountID string
	ActorID   string
	Email     string
	IP        string
	UserAgent string
	RequestID string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	l := logger.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	logEvent := l.Info()
	if event.AccountID != "" {
		logEvent = logEvent.Str("account_id", event.AccountID)
	}
	if event.ActorID != "" {
		logEvent = logEvent.Str("actor_id", event.ActorID)
	}
	if event.Email != "" {
		logEvent = logEvent.Str("email", event.Email)
	}
	if event.IP != "" {
		logEvent = logEvent.Str("ip", event.IP)
	}
	if event.UserAgent != "" {
		logEvent = logEvent.Str("user_agent", event.UserAgent)
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

// LogFromRequest fills IP, user agent and request id from r.
// RealIP middleware has already resolved RemoteAddr.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	event.RequestID = middleware.GetReqID(r.Context())
	Log(r.Context(), event)
}
