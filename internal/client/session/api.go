package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const profilePath = "/api/auth/profile"

var (
	ErrSessionRejected = errors.New("session rejected by server")
	ErrTransientCheck  = errors.New("session check failed")
)

// APIClient talks to the Ledgerly API on behalf of a stored session.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckProfile fetches the profile with token. A 401 yields
// ErrSessionRejected; any other failure wraps ErrTransientCheck.
func (c *APIClient) CheckProfile(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+profilePath, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransientCheck, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransientCheck, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrSessionRejected
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("%w: status %d", ErrTransientCheck, resp.StatusCode)
	}
}
