package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/model"
	"github.com/ledgerly/ledgerly-server-go/internal/repository"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

const (
	MaxContactSubjectLength = 200
	MaxContactMessageLength = 5000
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactService struct {
	contacts repository.ContactRepository
}

func NewContactService(contacts repository.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*model.Contact, error) {
	params := model.CreateContactParams{
		Name:    strings.TrimSpace(input.Name),
		Email:   util.NormalizeEmail(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
	}

	switch {
	case params.Name == "":
		return nil, apperrors.MissingRequired("name")
	case len(params.Name) > MaxNameLength:
		return nil, apperrors.InvalidInput("name", "too long")
	case !util.IsValidEmail(params.Email):
		return nil, apperrors.InvalidInput("email", "not a valid address")
	case len(params.Subject) > MaxContactSubjectLength:
		return nil, apperrors.InvalidInput("subject", "too long")
	case params.Message == "":
		return nil, apperrors.MissingRequired("message")
	case len(params.Message) > MaxContactMessageLength:
		return nil, apperrors.InvalidInput("message", "too long")
	}

	contact, err := s.contacts.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("contactId", contact.ID).Msg("contact message received")
	return contact, nil
}
