package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/metrics"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

// AccountResolver maps a verified external identity onto exactly one local
// account. Uniqueness of email and google_id is enforced by the database, so
// concurrent first logins for the same person converge on one row.
type AccountResolver struct {
	accounts repository.AccountRepository
	admins   AdminEmails
}

func NewAccountResolver(accounts repository.AccountRepository, admins AdminEmails) *AccountResolver {
	return &AccountResolver{accounts: accounts, admins: admins}
}

func (r *AccountResolver) Resolve(ctx context.Context, identity *model.ExternalIdentity) (*model.Account, error) {
	if identity == nil || identity.Subject == "" {
		return nil, apperrors.MissingRequired("subject")
	}
	email := util.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	// An unverified address can neither claim an existing account by email
	// nor earn the admin role.
	if !identity.EmailVerified {
		audit.Log(ctx, audit.Event{
			Type:    audit.EventAuthFailure,
			Email:   email,
			Details: map[string]interface{}{"provider": identity.Provider, "reason": "email_unverified"},
		})
		return nil, apperrors.Unauthorized("Email address is not verified with the identity provider")
	}

	account, err := r.resolve(ctx, identity, email, true)
	if err != nil && repository.IsUniqueViolation(err) {
		// Lost a race with a concurrent login; the winner's row is visible now.
		log.Debug().Str("provider", identity.Provider).Msg("account create raced, resolving again")
		account, err = r.resolve(ctx, identity, email, false)
	}
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		audit.Log(ctx, audit.Event{Type: audit.EventDeactivatedAttempt, AccountID: account.ID})
		return nil, apperrors.AccountDeactivated()
	}

	if err := r.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		log.Warn().Err(err).Str("accountId", account.ID).Msg("failed to update last login")
	}

	return account, nil
}

func (r *AccountResolver) resolve(ctx context.Context, identity *model.ExternalIdentity, email string, allowCreate bool) (*model.Account, error) {
	account, err := r.accounts.FindByGoogleID(ctx, identity.Subject)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account != nil {
		return r.refreshName(ctx, account, identity), nil
	}

	account, err = r.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account != nil {
		return r.link(ctx, account, identity)
	}

	if !allowCreate {
		return nil, apperrors.IdentityConflict("Account could not be resolved for this identity")
	}
	return r.create(ctx, identity, email)
}

func (r *AccountResolver) link(ctx context.Context, account *model.Account, identity *model.ExternalIdentity) (*model.Account, error) {
	if account.Origin() != model.OriginNone {
		r.conflict(ctx, account, identity)
		return nil, apperrors.IdentityConflict("This email is already registered with a different sign-in method")
	}

	linked, err := r.accounts.LinkGoogleID(ctx, account.ID, identity.Subject)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, err
		}
		return nil, apperrors.Database(err)
	}
	if linked == nil {
		// Another origin was attached between lookup and update.
		r.conflict(ctx, account, identity)
		return nil, apperrors.IdentityConflict("This email is already registered with a different sign-in method")
	}

	metrics.IdentityLinksTotal.Inc()
	audit.Log(ctx, audit.Event{
		Type:      audit.EventIdentityLink,
		AccountID: linked.ID,
		Details:   map[string]interface{}{"provider": identity.Provider},
	})
	return r.refreshName(ctx, linked, identity), nil
}

func (r *AccountResolver) create(ctx context.Context, identity *model.ExternalIdentity, email string) (*model.Account, error) {
	subject := identity.Subject
	account, err := r.accounts.Create(ctx, model.CreateAccountParams{
		Email:      email,
		Name:       identity.Name,
		GoogleID:   &subject,
		Role:       r.admins.RoleFor(email),
		Plan:       model.PlanFree,
		IsVerified: false,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, err
		}
		return nil, apperrors.Database(err)
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(model.OriginGoogle)).Inc()
	audit.Log(ctx, audit.Event{
		Type:      audit.EventAccountCreate,
		AccountID: account.ID,
		Details:   map[string]interface{}{"provider": identity.Provider, "role": string(account.Role)},
	})
	return account, nil
}

// refreshName fills an empty display name from the provider. Failures are
// logged and the unmodified account is returned.
func (r *AccountResolver) refreshName(ctx context.Context, account *model.Account, identity *model.ExternalIdentity) *model.Account {
	if account.Name != "" || identity.Name == "" {
		return account
	}
	name := identity.Name
	updated, err := r.accounts.Update(ctx, account.ID, model.UpdateAccountParams{Name: &name})
	if err != nil || updated == nil {
		log.Warn().Err(err).Str("accountId", account.ID).Msg("failed to refresh display name")
		return account
	}
	return updated
}

func (r *AccountResolver) conflict(ctx context.Context, account *model.Account, identity *model.ExternalIdentity) {
	audit.Log(ctx, audit.Event{
		Type:      audit.EventIdentityConflict,
		AccountID: account.ID,
		Details: map[string]interface{}{
			"provider":        identity.Provider,
			"existing_origin": string(account.Origin()),
		},
	})
}

// AdminEmails promotes listed addresses to the admin role when their account
// is first created.
type AdminEmails map[string]struct{}

func NewAdminEmails(emails []string) AdminEmails {
	set := make(AdminEmails, len(emails))
	for _, e := range emails {
		if n := util.NormalizeEmail(e); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (a AdminEmails) RoleFor(email string) model.Role {
	if _, ok := a[util.NormalizeEmail(email)]; ok {
		return model.RoleAdmin
	}
	return model.RoleUser
}
