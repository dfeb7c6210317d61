package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthCheck is one dependency probed by /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthHandler(timeout time.Duration, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: timeout}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			log.Warn().Err(err).Str("check", c.Name).Msg("health check failed")
			results[c.Name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		results[c.Name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UnixMilli(),
		"checks":    results,
	})
}
