package service

import (
	"context"
	"time"

	"github.com/ledgerly/ledgerly-server-go/internal/auth"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
)

// TokenValidator checks a presented credential.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type SubscriptionStatus struct {
	Plan      model.Plan `json:"plan"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type AccountService struct {
	accounts  repository.AccountRepository
	validator TokenValidator
}

func NewAccountService(accounts repository.AccountRepository, validator TokenValidator) *AccountService {
	return &AccountService{accounts: accounts, validator: validator}
}

// Authenticate turns a bearer credential into the live account. The account
// is reloaded on every call so deactivation takes effect immediately.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	claims, err := s.validator.Validate(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.Unauthorized("Account no longer exists")
	}
	if !account.IsActive() {
		return nil, apperrors.AccountDeactivated()
	}
	return account, nil
}

func (s *AccountService) Subscription(account *model.Account) SubscriptionStatus {
	profile := account.Profile()
	return SubscriptionStatus{
		Plan:      profile.Plan,
		UpdatedAt: account.PlanUpdatedAt,
	}
}
