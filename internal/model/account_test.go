package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestAccountOrigin(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    AuthOrigin
	}{
		{"google", Account{GoogleID: strPtr("g123")}, OriginGoogle},
		{"password", Account{PasswordHash: strPtr("$2a$10$hash")}, OriginPassword},
		{"invited placeholder", Account{}, OriginNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.account.Origin())
		})
	}
}

func TestAccountIsActive(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Account{}).IsActive())
	assert.False(t, (&Account{DeactivatedAt: &now}).IsActive())
}

func TestAccountProfile(t *testing.T) {
	t.Run("copies public fields", func(t *testing.T) {
		a := &Account{
			ID:         "acc-1",
			Name:       "A",
			Email:      "a@x.com",
			Role:       RoleAdmin,
			Plan:       PlanPro,
			IsVerified: true,
			GoogleID:   strPtr("g123"),
		}

		assert.Equal(t, Profile{
			ID:         "acc-1",
			Name:       "A",
			Email:      "a@x.com",
			Role:       RoleAdmin,
			Plan:       PlanPro,
			IsVerified: true,
		}, a.Profile())
	})

	t.Run("fills canonical defaults", func(t *testing.T) {
		p := (&Account{ID: "acc-2", Email: "b@x.com"}).Profile()

		assert.Equal(t, RoleUser, p.Role)
		assert.Equal(t, PlanFree, p.Plan)
		assert.False(t, p.IsVerified)
	})
}
