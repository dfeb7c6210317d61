package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGoogle struct {
	server       *httptest.Server
	userInfo     map[string]any
	tokenStatus  int
	gotVerifier  string
	gotCode      string
	gotAuthToken string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	fg := &fakeGoogle{tokenStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		fg.gotCode = r.PostForm.Get("code")
		fg.gotVerifier = r.PostForm.Get("code_verifier")

		w.Header().Set("Content-Type", "application/json")
		if fg.tokenStatus != http.StatusOK {
			w.WriteHeader(fg.tokenStatus)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		fg.gotAuthToken = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fg.userInfo)
	})

	fg.server = httptest.NewServer(mux)
	t.Cleanup(fg.server.Close)
	return fg
}

func (fg *fakeGoogle) provider(t *testing.T) *GoogleProvider {
	t.Helper()
	p, err := NewGoogleProvider(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
		AuthURL:      fg.server.URL + "/auth",
		TokenURL:     fg.server.URL + "/token",
		UserInfoURL:  fg.server.URL + "/userinfo",
		HTTPClient:   fg.server.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestNewGoogleProvider_RequiresCredentials(t *testing.T) {
	_, err := NewGoogleProvider(GoogleConfig{ClientID: "id"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	fg := newFakeGoogle(t)
	p := fg.provider(t)

	raw := p.AuthCodeURL("state-1", "verifier-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEqual(t, "verifier-1", q.Get("code_challenge"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	t.Run("returns identity", func(t *testing.T) {
		fg := newFakeGoogle(t)
		fg.userInfo = map[string]any{
			"sub":            "g123",
			"email":          "a@x.com",
			"email_verified": true,
			"name":           "A",
		}

		identity, err := fg.provider(t).Exchange(context.Background(), "code-1", "verifier-1")

		require.NoError(t, err)
		assert.Equal(t, "g123", identity.Subject)
		assert.Equal(t, "a@x.com", identity.Email)
		assert.True(t, identity.EmailVerified)
		assert.Equal(t, "A", identity.Name)
		assert.Equal(t, "code-1", fg.gotCode)
		assert.Equal(t, "verifier-1", fg.gotVerifier)
		assert.Equal(t, "Bearer at-1", fg.gotAuthToken)
	})

	t.Run("rejects identity without subject", func(t *testing.T) {
		fg := newFakeGoogle(t)
		fg.userInfo = map[string]any{"email": "a@x.com"}

		_, err := fg.provider(t).Exchange(context.Background(), "code-1", "v")
		assert.ErrorIs(t, err, ErrOAuthProviderError)
	})

	t.Run("rejects unverified email", func(t *testing.T) {
		fg := newFakeGoogle(t)
		fg.userInfo = map[string]any{"sub": "g123", "email": "boss@x.com", "email_verified": false}

		identity, err := fg.provider(t).Exchange(context.Background(), "code-1", "v")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, ErrOAuthProviderError)
	})

	t.Run("token endpoint refusal", func(t *testing.T) {
		fg := newFakeGoogle(t)
		fg.tokenStatus = http.StatusBadRequest

		_, err := fg.provider(t).Exchange(context.Background(), "bad", "v")
		assert.ErrorIs(t, err, ErrOAuthProviderError)
	})
}
