package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/metrics"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

// CredentialIssuer signs session credentials for resolved accounts.
type CredentialIssuer interface {
	Issue(account *model.Account) (string, time.Time, error)
}

// CallbackResult is everything the redirect bridge needs after a successful
// provider round trip.
type CallbackResult struct {
	Account      *model.Account
	Token        string
	ExpiresAt    time.Time
	RedirectPath string
}

type OAuthService struct {
	provider  IdentityProvider
	stateRepo repository.OAuthStateRepository
	resolver  *AccountResolver
	issuer    CredentialIssuer
	stateTTL  time.Duration
}

// NewOAuthService accepts a nil provider; every call then fails with
// ErrProviderNotConfigured.
func NewOAuthService(
	provider IdentityProvider,
	stateRepo repository.OAuthStateRepository,
	resolver *AccountResolver,
	issuer CredentialIssuer,
	stateTTL time.Duration,
) *OAuthService {
	return &OAuthService{
		provider:  provider,
		stateRepo: stateRepo,
		resolver:  resolver,
		issuer:    issuer,
		stateTTL:  stateTTL,
	}
}

// GetAuthURL records a fresh state and PKCE verifier and returns the provider
// consent URL. redirectPath is the optional post-login destination.
func (s *OAuthService) GetAuthURL(ctx context.Context, redirectPath string) (string, error) {
	if s.provider == nil {
		return "", ErrProviderNotConfigured
	}

	state, err := util.GenerateToken()
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	var redirect *string
	if util.IsSafeRedirectPath(redirectPath) {
		redirect = &redirectPath
	}

	_, err = s.stateRepo.Create(ctx, model.CreateOAuthStateParams{
		State:        state,
		Provider:     s.provider.Name(),
		CodeVerifier: verifier,
		RedirectPath: redirect,
		ExpiresAt:    time.Now().Add(s.stateTTL),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	return s.provider.AuthCodeURL(state, verifier), nil
}

// HandleCallback redeems state, exchanges the code, resolves the account and
// issues a credential. The state is consumed even when a later step fails.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (*CallbackResult, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	stored, err := s.stateRepo.Consume(ctx, state)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if stored == nil || stored.Provider != s.provider.Name() {
		audit.Log(ctx, audit.Event{Type: audit.EventOAuthStateInvalid})
		return nil, apperrors.InvalidState()
	}

	identity, err := s.provider.Exchange(ctx, code, stored.CodeVerifier)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(s.provider.Name(), metrics.OutcomeFailure).Inc()
		return nil, apperrors.External(s.provider.Name(), err)
	}

	account, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(s.provider.Name(), metrics.OutcomeFailure).Inc()
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(account)
	if err != nil {
		log.Error().Err(err).Str("accountId", account.ID).Msg("credential issuance failed")
		metrics.LoginsTotal.WithLabelValues(s.provider.Name(), metrics.OutcomeFailure).Inc()
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues(s.provider.Name(), metrics.OutcomeSuccess).Inc()
	metrics.CredentialsIssuedTotal.Inc()
	audit.Log(ctx, audit.Event{
		Type:      audit.EventLoginSuccess,
		AccountID: account.ID,
		Details: map[string]interface{}{
			"provider":    s.provider.Name(),
			"fingerprint": util.Fingerprint(token),
		},
	})

	result := &CallbackResult{
		Account:   account,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if stored.RedirectPath != nil {
		result.RedirectPath = *stored.RedirectPath
	}
	return result, nil
}
