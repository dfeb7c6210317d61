package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ledgerly/ledgerly-server-go/internal/model"
)

type ContactRepository interface {
	Create(ctx context.Context, params model.CreateContactParams) (*model.Contact, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Contact, error)
	Count(ctx context.Context) (int, error)
}

type contactRepo struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) Create(ctx context.Context, params model.CreateContactParams) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.GetContext(ctx, &contact, `
		INSERT INTO contacts (name, email, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.Name, params.Email, params.Subject, params.Message)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Contact, error) {
	var contacts []model.Contact
	err := r.db.SelectContext(ctx, &contacts, `
		SELECT * FROM contacts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contacts`)
	return count, err
}
