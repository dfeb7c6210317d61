package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

func TestPasswordAuthService_Register(t *testing.T) {
	t.Run("creates account with canonical defaults", func(t *testing.T) {
		repo := new(mockAccountRepo)
		issuer := &fakeIssuer{token: "signed"}

		repo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateAccountParams) bool {
			return p.Email == "new@x.com" &&
				p.Name == "New" &&
				p.PasswordHash != nil &&
				util.CheckPasswordHash("password123", *p.PasswordHash) &&
				p.Role == model.RoleUser &&
				p.Plan == model.PlanFree &&
				!p.IsVerified
		})).Return(&model.Account{ID: "acc-1", Email: "new@x.com", Name: "New"}, nil)

		svc := NewPasswordAuthService(repo, issuer, nil)
		result, err := svc.Register(context.Background(), RegisterInput{Name: " New ", Email: "New@X.com", Password: "password123"})

		require.NoError(t, err)
		assert.Equal(t, "signed", result.Token)
		assert.Equal(t, "acc-1", result.Account.ID)
		repo.AssertExpectations(t)
	})

	t.Run("admin email gets admin role", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateAccountParams) bool {
			return p.Role == model.RoleAdmin
		})).Return(&model.Account{ID: "acc-1"}, nil)

		svc := NewPasswordAuthService(repo, &fakeIssuer{token: "t"}, NewAdminEmails([]string{"Boss@x.com"}))
		_, err := svc.Register(context.Background(), RegisterInput{Name: "Boss", Email: "boss@x.com", Password: "password123"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewPasswordAuthService(new(mockAccountRepo), &fakeIssuer{}, nil)

		tests := []struct {
			name  string
			input RegisterInput
			code  apperrors.ErrorCode
		}{
			{"missing name", RegisterInput{Email: "a@x.com", Password: "password123"}, apperrors.ErrCodeMissingRequired},
			{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "password123"}, apperrors.ErrCodeInvalidInput},
			{"short password", RegisterInput{Name: "A", Email: "a@x.com", Password: "short"}, apperrors.ErrCodeInvalidInput},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Register(context.Background(), tc.input)
				assert.True(t, apperrors.HasCode(err, tc.code), "got %v", err)
			})
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil, uniqueViolation())

		svc := NewPasswordAuthService(repo, &fakeIssuer{}, nil)
		_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@x.com", Password: "password123"})

		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists))
	})
}

func TestPasswordAuthService_Login(t *testing.T) {
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	t.Run("success updates last login", func(t *testing.T) {
		repo := new(mockAccountRepo)
		account := &model.Account{ID: "acc-1", Email: "a@x.com", PasswordHash: &hash}
		repo.On("FindByEmail", mock.Anything, "a@x.com").Return(account, nil)
		repo.On("UpdateLastLogin", mock.Anything, "acc-1").Return(nil)

		result, err := NewPasswordAuthService(repo, &fakeIssuer{token: "signed"}, nil).
			Login(context.Background(), " A@x.com ", "password123")

		require.NoError(t, err)
		assert.Equal(t, "signed", result.Token)
		repo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.Account{ID: "acc-1", PasswordHash: &hash}, nil)

		issuer := &fakeIssuer{token: "signed"}
		_, err := NewPasswordAuthService(repo, issuer, nil).Login(context.Background(), "a@x.com", "wrong-pass")

		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
		assert.Zero(t, issuer.calls)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, nil)

		_, err := NewPasswordAuthService(repo, &fakeIssuer{}, nil).Login(context.Background(), "ghost@x.com", "password123")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
	})

	t.Run("google account hints at provider", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.Account{ID: "acc-1", GoogleID: strPtr("g123")}, nil)

		_, err := NewPasswordAuthService(repo, &fakeIssuer{}, nil).Login(context.Background(), "a@x.com", "password123")

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidCredentials, appErr.Code)
		assert.NotNil(t, appErr.Details)
	})

	t.Run("deactivated", func(t *testing.T) {
		now := time.Now()
		repo := new(mockAccountRepo)
		repo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.Account{ID: "acc-1", PasswordHash: &hash, DeactivatedAt: &now}, nil)

		issuer := &fakeIssuer{token: "signed"}
		_, err := NewPasswordAuthService(repo, issuer, nil).Login(context.Background(), "a@x.com", "password123")

		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccountDeactivated))
		assert.Zero(t, issuer.calls)
	})

	t.Run("database failure", func(t *testing.T) {
		repo := new(mockAccountRepo)
		repo.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("down"))

		_, err := NewPasswordAuthService(repo, &fakeIssuer{}, nil).Login(context.Background(), "a@x.com", "password123")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabase))
	})
}
