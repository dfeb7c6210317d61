// Package auth mints and checks the signed session credentials handed to clients.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

const (
	// TokenTTL is fixed; every credential expires seven days after issuance.
	TokenTTL = 7 * 24 * time.Hour

	Issuer = "ledgerly"

	MinSecretLength = 32
)

var ErrSecretTooShort = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)

// Claims carried by a session credential.
type Claims struct {
	AccountID string `json:"uid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 credentials. It holds no state beyond
// the key, so one instance is shared by all requests.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer never fails: a missing or short secret yields an issuer that
// refuses every Issue call, so the rest of the server can still start.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (i *TokenIssuer) ready() error {
	if len(i.secret) < MinSecretLength {
		return ErrSecretTooShort
	}
	return nil
}

// Issue returns a credential for account and its expiry time.
func (i *TokenIssuer) Issue(account *model.Account) (string, time.Time, error) {
	if err := i.ready(); err != nil {
		return "", time.Time{}, apperrors.SigningUnavailable(err)
	}
	if account == nil || account.ID == "" {
		return "", time.Time{}, apperrors.Internal("cannot issue credential without an account")
	}

	now := i.now().UTC()
	expiresAt := now.Add(TokenTTL)
	claims := &Claims{
		AccountID: account.ID,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, apperrors.SigningUnavailable(fmt.Errorf("sign credential: %w", err))
	}

	return signed, expiresAt, nil
}

// Validate checks signature, algorithm, issuer and expiry.
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	if err := i.ready(); err != nil {
		return nil, apperrors.SigningUnavailable(err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken("Invalid token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, apperrors.InvalidToken("Invalid token claims")
	}

	return claims, nil
}
