package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ledgerly/ledgerly-server-go/internal/database"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Account, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	Update(ctx context.Context, id string, params model.UpdateAccountParams) (*model.Account, error)
	// LinkGoogleID attaches an external identity to an account that has no
	// authentication origin yet. Returns nil when no such account matched.
	LinkGoogleID(ctx context.Context, id, googleID string) (*model.Account, error)
	UpdateLastLogin(ctx context.Context, id string) error
	SetDeactivated(ctx context.Context, id string, deactivated bool) (*model.Account, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*model.AccountStats, error)
}

type accountRepo struct {
	db database.DBTX
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE google_id = $1
	`, googleID)
	return HandleNotFound(&account, err)
}

// FindByEmail expects an already normalized address.
func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE lower(email) = lower($1)
	`, email)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	role := params.Role
	if role == "" {
		role = model.RoleUser
	}
	plan := params.Plan
	if plan == "" {
		plan = model.PlanFree
	}

	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (email, name, google_id, password_hash, role, plan, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.Email, params.Name, params.GoogleID, params.PasswordHash, role, plan, params.IsVerified)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) Update(ctx context.Context, id string, params model.UpdateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			plan = COALESCE($4, plan),
			is_verified = COALESCE($5, is_verified),
			plan_updated_at = CASE WHEN $4::text IS NOT NULL AND $4::text <> plan THEN $6 ELSE plan_updated_at END,
			updated_at = $6
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Role, params.Plan, params.IsVerified, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) LinkGoogleID(ctx context.Context, id, googleID string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			google_id = $2,
			updated_at = $3
		WHERE id = $1 AND google_id IS NULL AND password_hash IS NULL
		RETURNING *
	`, id, googleID, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET last_login_at = NOW() WHERE id = $1
	`, id)
	return err
}

func (r *accountRepo) SetDeactivated(ctx context.Context, id string, deactivated bool) (*model.Account, error) {
	var deactivatedAt *time.Time
	now := time.Now()
	if deactivated {
		deactivatedAt = &now
	}

	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			deactivated_at = $2,
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, deactivatedAt, now)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`)
	return count, err
}

func (r *accountRepo) Stats(ctx context.Context) (*model.AccountStats, error) {
	var stats model.AccountStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE deactivated_at IS NULL) AS active,
			COUNT(*) FILTER (WHERE deactivated_at IS NOT NULL) AS deactivated,
			COUNT(*) FILTER (WHERE google_id IS NOT NULL) AS google,
			COUNT(*) FILTER (WHERE password_hash IS NOT NULL) AS password,
			COUNT(*) FILTER (WHERE google_id IS NULL AND password_hash IS NULL) AS invited,
			COUNT(*) FILTER (WHERE role = 'admin') AS admins,
			COUNT(*) FILTER (WHERE plan = 'pro') AS pro,
			COUNT(*) FILTER (WHERE is_verified) AS verified
		FROM accounts
	`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
