package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/metrics"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	MaxPasswordLength = 72
	MaxNameLength     = 100

	methodPassword = "password"
)

// dummyHash keeps the unknown-email path as slow as a real comparison.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := util.HashPassword("ledgerly-timing-pad")
	return hash
})

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

type PasswordAuthService struct {
	accounts repository.AccountRepository
	issuer   CredentialIssuer
	admins   AdminEmails
}

func NewPasswordAuthService(accounts repository.AccountRepository, issuer CredentialIssuer, admins AdminEmails) *PasswordAuthService {
	return &PasswordAuthService{accounts: accounts, issuer: issuer, admins: admins}
}

func (s *PasswordAuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := util.NormalizeEmail(input.Email)

	if name == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if len(name) > MaxNameLength {
		return nil, apperrors.InvalidInput("name", "too long")
	}
	if !util.IsValidEmail(email) {
		return nil, apperrors.InvalidInput("email", "not a valid address")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	account, err := s.accounts.Create(ctx, model.CreateAccountParams{
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		Role:         s.admins.RoleFor(email),
		Plan:         model.PlanFree,
		IsVerified:   false,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Account")
		}
		return nil, apperrors.Database(err)
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(model.OriginPassword)).Inc()
	audit.Log(ctx, audit.Event{Type: audit.EventAccountCreate, AccountID: account.ID, Details: map[string]interface{}{"method": methodPassword}})

	return s.issue(ctx, account)
}

func (s *PasswordAuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = util.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.InvalidCredentials()
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if account == nil || account.PasswordHash == nil {
		util.CheckPasswordHash(password, dummyHash())
		s.fail(ctx, account)
		if account != nil && account.Origin() == model.OriginGoogle {
			return nil, apperrors.InvalidCredentials().WithDetails(map[string]string{"hint": "Sign in with Google"})
		}
		return nil, apperrors.InvalidCredentials()
	}

	if !util.CheckPasswordHash(password, *account.PasswordHash) {
		s.fail(ctx, account)
		return nil, apperrors.InvalidCredentials()
	}

	if !account.IsActive() {
		audit.Log(ctx, audit.Event{Type: audit.EventDeactivatedAttempt, AccountID: account.ID})
		return nil, apperrors.AccountDeactivated()
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		return nil, apperrors.Database(err)
	}

	return s.issue(ctx, account)
}

func (s *PasswordAuthService) issue(ctx context.Context, account *model.Account) (*AuthResult, error) {
	token, expiresAt, err := s.issuer.Issue(account)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(methodPassword, metrics.OutcomeFailure).Inc()
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues(methodPassword, metrics.OutcomeSuccess).Inc()
	metrics.CredentialsIssuedTotal.Inc()
	audit.Log(ctx, audit.Event{
		Type:      audit.EventLoginSuccess,
		AccountID: account.ID,
		Details:   map[string]interface{}{"method": methodPassword, "fingerprint": util.Fingerprint(token)},
	})

	return &AuthResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *PasswordAuthService) fail(ctx context.Context, account *model.Account) {
	metrics.LoginsTotal.WithLabelValues(methodPassword, metrics.OutcomeFailure).Inc()
	event := audit.Event{Type: audit.EventLoginFailure, Details: map[string]interface{}{"method": methodPassword}}
	if account != nil {
		event.AccountID = account.ID
	}
	audit.Log(ctx, event)
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.InvalidInput("password", "must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return apperrors.InvalidInput("password", "must be at most 72 bytes")
	}
	return nil
}
