package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

const (
	HandoffSuccessPath = "/auth/success"
	HandoffFailurePath = "/login"

	HandoffTokenParam = "token"
	HandoffUserParam  = "user"
	HandoffNextParam  = "next"
)

// Failure reasons carried to the client login page as ?error=<reason>.
const (
	FailureOAuthDenied        = "oauth_denied"
	FailureMissingParams      = "missing_params"
	FailureInvalidState       = "invalid_state"
	FailureOAuthFailed        = "oauth_failed"
	FailureIdentityConflict   = "identity_conflict"
	FailureAccountDeactivated = "account_deactivated"
	FailureSigningUnavailable = "signing_unavailable"
)

// BuildHandoffURL places the credential and the minimal profile on the
// client's success route. The profile is JSON inside a query value so every
// reserved character is percent-encoded. next is kept only when it is a safe
// same-origin path.
func BuildHandoffURL(clientBase, token string, profile model.Profile, next string) (string, error) {
	if token == "" {
		return "", apperrors.SigningUnavailable(errors.New("empty credential"))
	}

	base, err := parseClientBase(clientBase)
	if err != nil {
		return "", err
	}

	user, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode handoff profile: %w", err)
	}

	q := url.Values{}
	q.Set(HandoffTokenParam, token)
	q.Set(HandoffUserParam, string(user))
	if util.IsSafeRedirectPath(next) {
		q.Set(HandoffNextParam, next)
	}

	base.Path = strings.TrimRight(base.Path, "/") + HandoffSuccessPath
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// BuildFailureURL points the browser at the client login page with a reason.
func BuildFailureURL(clientBase, reason string) string {
	base, err := parseClientBase(clientBase)
	if err != nil {
		return HandoffFailurePath + "?" + url.Values{"error": {reason}}.Encode()
	}
	base.Path = strings.TrimRight(base.Path, "/") + HandoffFailurePath
	base.RawQuery = url.Values{"error": {reason}}.Encode()
	return base.String()
}

// FailureReason maps a callback error onto the reason shown by the client.
func FailureReason(err error) string {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidState:
		return FailureInvalidState
	case apperrors.ErrCodeIdentityConflict:
		return FailureIdentityConflict
	case apperrors.ErrCodeAccountDeactivated:
		return FailureAccountDeactivated
	case apperrors.ErrCodeSigningUnavailable:
		return FailureSigningUnavailable
	case apperrors.ErrCodeMissingRequired:
		return FailureMissingParams
	default:
		return FailureOAuthFailed
	}
}

func parseClientBase(clientBase string) (*url.URL, error) {
	base, err := url.Parse(clientBase)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, apperrors.Internal("client base URL is not absolute")
	}
	base.RawQuery = ""
	base.Fragment = ""
	return base, nil
}
