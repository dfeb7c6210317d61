package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

type State int

const (
	StateIdle State = iota
	StateParsing
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

const (
	DefaultLanding = "/dashboard"
	LoginPath      = "/login"

	// HandoffFailureTarget is where a broken handoff lands.
	HandoffFailureTarget = LoginPath + "?error=handoff_malformed"
)

// Handoff query parameters set by the server's success redirect.
const (
	paramToken = "token"
	paramUser  = "user"
	paramNext  = "next"
)

// Hydrator turns a handoff redirect into a stored session.
type Hydrator struct {
	store   Store
	browser Browser
	bus     *Bus
	logger  zerolog.Logger

	mu    sync.Mutex
	state State
}

func NewHydrator(store Store, browser Browser, bus *Bus, logger zerolog.Logger) *Hydrator {
	if bus == nil {
		bus = NewBus(logger)
	}
	return &Hydrator{
		store:   store,
		browser: browser,
		bus:     bus,
		logger:  logger.With().Str("component", "hydrator").Logger(),
	}
}

func (h *Hydrator) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Hydrate consumes the handoff in the current location, if any, and returns
// the state it ended in. Without handoff parameters it is a no-op.
func (h *Hydrator) Hydrate(ctx context.Context) State {
	h.mu.Lock()
	defer h.mu.Unlock()

	loc, err := url.Parse(h.browser.Location())
	if err != nil {
		h.logger.Debug().Err(err).Msg("location is not a url")
		return h.set(StateIdle)
	}

	q := loc.Query()
	if !q.Has(paramToken) && !q.Has(paramUser) {
		return h.set(StateIdle)
	}
	h.set(StateParsing)

	rec, err := ParseHandoff(q.Get(paramToken), q.Get(paramUser))
	if err != nil {
		return h.fail(ctx, err)
	}
	if err := h.store.Save(ctx, rec); err != nil {
		return h.fail(ctx, err)
	}

	h.bus.Publish(EventLoggedIn)
	target := h.destination(ctx, q.Get(paramNext))
	h.browser.Replace(target)

	h.logger.Info().
		Str("email", rec.Email).
		Str("target", target).
		Msg("session established")
	return h.set(StateSuccess)
}

// destination prefers the saved pre-login page, then the handoff's next
// path, then the default landing route.
func (h *Hydrator) destination(ctx context.Context, next string) string {
	saved, err := h.store.TakeRedirect(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read saved redirect")
	}
	switch {
	case util.IsSafeRedirectPath(saved):
		return saved
	case util.IsSafeRedirectPath(next):
		return next
	default:
		return DefaultLanding
	}
}

func (h *Hydrator) fail(ctx context.Context, cause error) State {
	h.logger.Warn().Err(cause).Msg("handoff rejected")
	if err := h.store.Clear(ctx); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear session after rejected handoff")
	}
	h.browser.Replace(HandoffFailureTarget)
	return h.set(StateFailure)
}

func (h *Hydrator) set(s State) State {
	h.state = s
	return s
}
