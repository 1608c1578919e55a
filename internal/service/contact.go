package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/damio-storefront/internal/backend"
)

type ContactForm struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ContactService interface {
	Submit(ctx context.Context, form ContactForm) error
}

type contactService struct {
	log      *slog.Logger
	validate *validator.Validate
	backend  ContactBackend
}

func NewContactService(log *slog.Logger, backend ContactBackend) ContactService {
	return &contactService{log: log, validate: validator.New(), backend: backend}
}

func (s *contactService) Submit(ctx context.Context, form ContactForm) error {
	const op = "service.ContactService.Submit"

	if err := s.validate.Struct(form); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if err := s.backend.Contact(ctx, backend.ContactMessage{
		Name:    form.Name,
		Email:   form.Email,
		Subject: form.Subject,
		Message: form.Message,
	}); err != nil {
		s.log.Error("failed to submit contact form", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
