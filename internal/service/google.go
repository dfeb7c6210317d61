package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/ledgerly/ledgerly-server-go/internal/metrics"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

var (
	ErrOAuthProviderError    = errors.New("OAuth provider returned an error")
	ErrProviderNotConfigured = errors.New("OAuth provider not configured")
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	maxUserInfoBytes = 1 << 16
)

// IdentityProvider delegates credential verification to an external party.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*model.ExternalIdentity, error)
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides, empty means Google's production endpoints.
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrProviderNotConfigured
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = googleAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}, nil
}

func (p *GoogleProvider) Name() string {
	return model.OAuthProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (identity *model.ExternalIdentity, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		metrics.ProviderExchangeDuration.WithLabelValues(p.Name(), outcome).Observe(time.Since(start).Seconds())
	}()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			log.Error().
				Int("status", status).
				Str("error_code", retrieveErr.ErrorCode).
				Msg("Google token exchange failed")
			return nil, ErrOAuthProviderError
		}
		return nil, fmt.Errorf("google token exchange: %w", err)
	}

	return p.fetchUserInfo(ctx, token)
}

func (p *GoogleProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*model.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read Google userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Google userinfo failed")
		return nil, ErrOAuthProviderError
	}

	var userInfo struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("decode Google userinfo: %w", err)
	}
	if userInfo.Sub == "" || userInfo.Email == "" {
		log.Error().Bool("has_sub", userInfo.Sub != "").Bool("has_email", userInfo.Email != "").
			Msg("Google userinfo missing required fields")
		return nil, ErrOAuthProviderError
	}
	if !userInfo.EmailVerified {
		log.Warn().Msg("Google userinfo email not verified")
		return nil, ErrOAuthProviderError
	}

	return &model.ExternalIdentity{
		Provider:      model.OAuthProviderGoogle,
		Subject:       userInfo.Sub,
		Email:         userInfo.Email,
		EmailVerified: userInfo.EmailVerified,
		Name:          userInfo.Name,
		Picture:       userInfo.Picture,
	}, nil
}
