package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

var (
	_ repository.AccountRepository    = (*mockAccountRepo)(nil)
	_ repository.OAuthStateRepository = (*mockStateRepo)(nil)
	_ repository.ContactRepository    = (*mockContactRepo)(nil)
	_ service.IdentityProvider        = (*mockProvider)(nil)
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *mockAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, id string, params model.UpdateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) LinkGoogleID(ctx context.Context, id, googleID string) (*model.Account, error) {
	args := m.Called(ctx, id, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) SetDeactivated(ctx context.Context, id string, deactivated bool) (*model.Account, error) {
	args := m.Called(ctx, id, deactivated)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) Stats(ctx context.Context) (*model.AccountStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountStats), args.Error(1)
}

type mockStateRepo struct {
	mock.Mock
}

func (m *mockStateRepo) Create(ctx context.Context, params model.CreateOAuthStateParams) (*model.OAuthState, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthState), args.Error(1)
}

func (m *mockStateRepo) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthState), args.Error(1)
}

func (m *mockStateRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockContactRepo struct {
	mock.Mock
}

func (m *mockContactRepo) Create(ctx context.Context, params model.CreateContactParams) (*model.Contact, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockContactRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Contact, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Contact), args.Error(1)
}

func (m *mockContactRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string {
	return model.OAuthProviderGoogle
}

func (m *mockProvider) AuthCodeURL(state, verifier string) string {
	args := m.Called(state, verifier)
	return args.String(0)
}

func (m *mockProvider) Exchange(ctx context.Context, code, verifier string) (*model.ExternalIdentity, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExternalIdentity), args.Error(1)
}

type fakeIssuer struct {
	token string
	err   error
	calls int
}

func (f *fakeIssuer) Issue(account *model.Account) (string, time.Time, error) {
	f.calls++
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return f.token, time.Now().Add(7 * 24 * time.Hour), nil
}

func strPtr(s string) *string { return &s }

