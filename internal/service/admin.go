package service

import (
	"context"
	"strings"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

type InviteInput struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

type AdminService struct {
	accounts repository.AccountRepository
	contacts repository.ContactRepository
}

func NewAdminService(accounts repository.AccountRepository, contacts repository.ContactRepository) *AdminService {
	return &AdminService{accounts: accounts, contacts: contacts}
}

func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) ([]model.Account, int, error) {
	accounts, err := s.accounts.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return accounts, total, nil
}

func (s *AdminService) Stats(ctx context.Context) (*model.AccountStats, error) {
	stats, err := s.accounts.Stats(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return stats, nil
}

// SetActive deactivates or reactivates an account. Admins cannot switch off
// their own account.
func (s *AdminService) SetActive(ctx context.Context, actor *model.Account, id string, active bool) (*model.Account, error) {
	if !active && actor.ID == id {
		return nil, apperrors.ValidationError("You cannot deactivate your own account")
	}

	account, err := s.accounts.SetDeactivated(ctx, id, !active)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}

	eventType := audit.EventAccountDeactivate
	if active {
		eventType = audit.EventAccountReactivate
	}
	audit.Log(ctx, audit.Event{Type: eventType, AccountID: id, ActorID: actor.ID})
	return account, nil
}

func (s *AdminService) SetRole(ctx context.Context, actor *model.Account, id string, role model.Role) (*model.Account, error) {
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be user or admin")
	}
	if actor.ID == id && role != model.RoleAdmin {
		return nil, apperrors.ValidationError("You cannot remove your own admin role")
	}

	account, err := s.accounts.Update(ctx, id, model.UpdateAccountParams{Role: &role})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventAccountRoleChange,
		AccountID: id,
		ActorID:   actor.ID,
		Details:   map[string]interface{}{"role": string(role)},
	})
	return account, nil
}

func (s *AdminService) SetPlan(ctx context.Context, actor *model.Account, id string, plan model.Plan) (*model.Account, error) {
	if !plan.Valid() {
		return nil, apperrors.InvalidInput("plan", "must be free or pro")
	}

	account, err := s.accounts.Update(ctx, id, model.UpdateAccountParams{Plan: &plan})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventAccountPlanChange,
		AccountID: id,
		ActorID:   actor.ID,
		Details:   map[string]interface{}{"plan": string(plan)},
	})
	return account, nil
}

// Invite creates a placeholder account with no authentication origin. The
// first Google sign-in for that email links to it.
func (s *AdminService) Invite(ctx context.Context, actor *model.Account, input InviteInput) (*model.Account, error) {
	email := util.NormalizeEmail(input.Email)
	if !util.IsValidEmail(email) {
		return nil, apperrors.InvalidInput("email", "not a valid address")
	}
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be user or admin")
	}

	account, err := s.accounts.Create(ctx, model.CreateAccountParams{
		Email: email,
		Name:  strings.TrimSpace(input.Name),
		Role:  role,
		Plan:  model.PlanFree,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Account")
		}
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventAccountInvite,
		AccountID: account.ID,
		ActorID:   actor.ID,
		Details:   map[string]interface{}{"role": string(role)},
	})
	return account, nil
}

func (s *AdminService) ListContacts(ctx context.Context, limit, offset int) ([]model.Contact, int, error) {
	contacts, err := s.contacts.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.contacts.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return contacts, total, nil
}
