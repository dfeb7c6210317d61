package model

import (
	"time"
)

type Account struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	Name          string     `db:"name" json:"name"`
	GoogleID      *string    `db:"google_id" json:"-"`
	PasswordHash  *string    `db:"password_hash" json:"-"`
	Role          Role       `db:"role" json:"role"`
	Plan          Plan       `db:"plan" json:"plan"`
	IsVerified    bool       `db:"is_verified" json:"isVerified"`
	PlanUpdatedAt *time.Time `db:"plan_updated_at" json:"planUpdatedAt,omitempty"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	DeactivatedAt *time.Time `db:"deactivated_at" json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

func (a *Account) Origin() AuthOrigin {
	switch {
	case a.GoogleID != nil:
		return OriginGoogle
	case a.PasswordHash != nil:
		return OriginPassword
	default:
		return OriginNone
	}
}

func (a *Account) IsActive() bool {
	return a.DeactivatedAt == nil
}

// Profile is the minimal user view handed to clients. Unknown role and plan
// values collapse to the canonical defaults.
func (a *Account) Profile() Profile {
	p := Profile{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		Plan:       a.Plan,
		IsVerified: a.IsVerified,
	}
	if !p.Role.Valid() {
		p.Role = RoleUser
	}
	if !p.Plan.Valid() {
		p.Plan = PlanFree
	}
	return p
}

type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Plan       Plan   `json:"plan"`
	IsVerified bool   `json:"isVerified"`
}

type CreateAccountParams struct {
	Email        string
	Name         string
	GoogleID     *string
	PasswordHash *string
	Role         Role
	Plan         Plan
	IsVerified   bool
}

type UpdateAccountParams struct {
	Name       *string
	Role       *Role
	Plan       *Plan
	IsVerified *bool
}

// AccountStats backs the admin dashboard counters.
type AccountStats struct {
	Total       int `db:"total" json:"total"`
	Active      int `db:"active" json:"active"`
	Deactivated int `db:"deactivated" json:"deactivated"`
	Google      int `db:"google" json:"google"`
	Password    int `db:"password" json:"password"`
	Invited     int `db:"invited" json:"invited"`
	Admins      int `db:"admins" json:"admins"`
	Pro         int `db:"pro" json:"pro"`
	Verified    int `db:"verified" json:"verified"`
}
