// Package session keeps the client's copy of a signed-in session: it consumes
// the server's handoff redirect, persists the credential and profile, and
// revalidates them while the client runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

// Store keys. The three session keys are written and removed together.
const (
	KeyToken    = "token"
	KeyEmail    = "email"
	KeyProfile  = "profile"
	KeyRedirect = "redirect_after_login"
)

var sessionKeys = []string{KeyToken, KeyEmail, KeyProfile}

var ErrHandoffMalformed = errors.New("handoff payload is malformed")

type Record struct {
	Token   string
	Email   string
	Profile model.Profile
}

// handoffProfile tells absent fields apart from zero values so defaults
// apply only to what the server left out.
type handoffProfile struct {
	ID         *string `json:"id"`
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	Plan       *string `json:"plan"`
	IsVerified *bool   `json:"isVerified"`
}

// DecodeProfile parses the handoff user parameter. email is required; role,
// plan and isVerified fall back to user, free and false.
func DecodeProfile(raw string) (model.Profile, error) {
	var hp handoffProfile
	if err := json.Unmarshal([]byte(raw), &hp); err != nil {
		return model.Profile{}, fmt.Errorf("%w: %v", ErrHandoffMalformed, err)
	}
	if hp.Email == nil || strings.TrimSpace(*hp.Email) == "" {
		return model.Profile{}, fmt.Errorf("%w: email is required", ErrHandoffMalformed)
	}

	p := model.Profile{
		Email: *hp.Email,
		Role:  model.RoleUser,
		Plan:  model.PlanFree,
	}
	if hp.ID != nil {
		p.ID = *hp.ID
	}
	if hp.Name != nil {
		p.Name = *hp.Name
	}
	if hp.Role != nil && model.Role(*hp.Role).Valid() {
		p.Role = model.Role(*hp.Role)
	}
	if hp.Plan != nil && model.Plan(*hp.Plan).Valid() {
		p.Plan = model.Plan(*hp.Plan)
	}
	if hp.IsVerified != nil {
		p.IsVerified = *hp.IsVerified
	}
	return p, nil
}

// ParseHandoff builds a record from the raw token and user parameters.
func ParseHandoff(token, user string) (Record, error) {
	if token == "" {
		return Record{}, fmt.Errorf("%w: token is missing", ErrHandoffMalformed)
	}
	if user == "" {
		return Record{}, fmt.Errorf("%w: user is missing", ErrHandoffMalformed)
	}
	profile, err := DecodeProfile(user)
	if err != nil {
		return Record{}, err
	}
	return Record{Token: token, Email: profile.Email, Profile: profile}, nil
}

func encodeRecord(rec Record) (map[string]string, error) {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return map[string]string{
		KeyToken:   rec.Token,
		KeyEmail:   rec.Email,
		KeyProfile: string(profile),
	}, nil
}

// decodeRecord returns nil when any session key is absent.
func decodeRecord(values map[string]string) (*Record, error) {
	for _, k := range sessionKeys {
		if _, ok := values[k]; !ok {
			return nil, nil
		}
	}
	var profile model.Profile
	if err := json.Unmarshal([]byte(values[KeyProfile]), &profile); err != nil {
		return nil, fmt.Errorf("decode stored profile: %w", err)
	}
	return &Record{Token: values[KeyToken], Email: values[KeyEmail], Profile: profile}, nil
}
