package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultCheckInterval = 30 * time.Second

// ProfileChecker revalidates a credential with the server.
type ProfileChecker interface {
	CheckProfile(ctx context.Context, token string) error
}

type MonitorConfig struct {
	Store        Store
	Checker      ProfileChecker
	Browser      Browser
	Alerter      Alerter
	Bus          *Bus
	Interval     time.Duration
	SupportEmail string
	Logger       zerolog.Logger
}

// Monitor periodically checks the stored session and tears it down when the
// server rejects it. Ticks run on a single goroutine and never overlap.
type Monitor struct {
	store        Store
	checker      ProfileChecker
	browser      Browser
	alerter      Alerter
	bus          *Bus
	interval     time.Duration
	supportEmail string
	logger       zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultCheckInterval
	}
	if cfg.Bus == nil {
		cfg.Bus = NewBus(cfg.Logger)
	}
	return &Monitor{
		store:        cfg.Store,
		checker:      cfg.Checker,
		browser:      cfg.Browser,
		alerter:      cfg.Alerter,
		bus:          cfg.Bus,
		interval:     cfg.Interval,
		supportEmail: cfg.SupportEmail,
		logger:       cfg.Logger.With().Str("component", "monitor").Logger(),
	}
}

// Start launches the check loop. It is a no-op while a loop is running.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		select {
		case <-m.done:
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.run(ctx, done)
}

// Stop cancels the loop and waits for it to exit. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the current loop exits, either through Stop or after a
// rejected session. It is nil before the first Start.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug().Dur("interval", m.interval).Msg("session monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug().Msg("session monitor stopped")
			return
		case <-ticker.C:
			if errors.Is(m.Check(ctx), ErrSessionRejected) {
				return
			}
		}
	}
}

// Check runs one revalidation. A rejected session is cleared, the user is
// alerted and sent to the login page; any other failure changes nothing.
func (m *Monitor) Check(ctx context.Context) error {
	rec, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to load session")
		return fmt.Errorf("%w: %v", ErrTransientCheck, err)
	}
	if rec == nil {
		return nil
	}

	err = m.checker.CheckProfile(ctx, rec.Token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionRejected):
		m.teardown(context.WithoutCancel(ctx), rec.Email)
		return err
	default:
		m.logger.Debug().Err(err).Msg("session check failed, retrying next tick")
		return err
	}
}

func (m *Monitor) teardown(ctx context.Context, email string) {
	m.logger.Info().Str("email", email).Msg("session rejected by server")

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear rejected session")
	}
	m.bus.Publish(EventLoggedOut)
	m.alerter.Alert(m.rejectionNotice())
	m.browser.Replace(LoginPath)
}

// rejectionNotice is the message shown when the server ends a session.
func (m *Monitor) rejectionNotice() string {
	return fmt.Sprintf(
		"Your session has ended. Your account may have been deactivated. Sign in again, or contact %s for help.",
		m.supportEmail)
}
