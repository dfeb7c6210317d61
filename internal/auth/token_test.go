package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

var testSecret = strings.Repeat("k", 32)

func testAccount() *model.Account {
	return &model.Account{ID: "acc-1", Email: "a@x.com", Name: "A", Role: model.RoleUser}
}

func TestIssue(t *testing.T) {
	t.Run("embeds account id and email with seven day expiry", func(t *testing.T) {
		issuer := NewTokenIssuer(testSecret)
		fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		issuer.now = func() time.Time { return fixed }

		token, expiresAt, err := issuer.Issue(testAccount())
		require.NoError(t, err)
		assert.Equal(t, fixed.Add(7*24*time.Hour), expiresAt)

		claims, err := issuer.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", claims.AccountID)
		assert.Equal(t, "acc-1", claims.Subject)
		assert.Equal(t, "a@x.com", claims.Email)
		assert.Equal(t, Issuer, claims.Issuer)
		assert.Equal(t, expiresAt, claims.ExpiresAt.Time.UTC())
	})

	t.Run("successive credentials differ and push expiry forward", func(t *testing.T) {
		issuer := NewTokenIssuer(testSecret)
		first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		issuer.now = func() time.Time { return first }
		tok1, exp1, err := issuer.Issue(testAccount())
		require.NoError(t, err)

		issuer.now = func() time.Time { return first.Add(time.Hour) }
		tok2, exp2, err := issuer.Issue(testAccount())
		require.NoError(t, err)

		assert.NotEqual(t, tok1, tok2)
		assert.True(t, exp2.After(exp1))
	})

	t.Run("refuses without a usable secret", func(t *testing.T) {
		for _, secret := range []string{"", "short"} {
			token, _, err := NewTokenIssuer(secret).Issue(testAccount())
			assert.Empty(t, token)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSigningUnavailable))
		}
	})

	t.Run("refuses without an account", func(t *testing.T) {
		_, _, err := NewTokenIssuer(testSecret).Issue(nil)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)

	t.Run("expired token", func(t *testing.T) {
		past := NewTokenIssuer(testSecret)
		past.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
		token, _, err := past.Issue(testAccount())
		require.NoError(t, err)

		_, err = issuer.Validate(token)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTokenExpired))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer(strings.Repeat("z", 32))
		token, _, err := other.Issue(testAccount())
		require.NoError(t, err)

		_, err = issuer.Validate(token)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	})

	t.Run("unsigned token", func(t *testing.T) {
		claims := &Claims{
			AccountID: "acc-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Validate(token)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := &Claims{
			AccountID: "acc-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = issuer.Validate(token)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Validate("not.a.token")
		assert.Error(t, err)
	})
}
