package model

import (
	"time"
)

// ExternalIdentity is a profile the identity provider has vouched for.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type OAuthState struct {
	ID           string    `db:"id"`
	State        string    `db:"state"`
	Provider     string    `db:"provider"`
	CodeVerifier string    `db:"code_verifier"`
	RedirectPath *string   `db:"redirect_path"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

type CreateOAuthStateParams struct {
	State        string
	Provider     string
	CodeVerifier string
	RedirectPath *string
	ExpiresAt    time.Time
}

const OAuthProviderGoogle = "google"
