package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 管理者向け一覧の上限
const contactListLimit = 200

type ContactUsecase struct {
	contacts repo.ContactRepository
	idGen    IDGenerator
	clock    Clock
}

func NewContactUsecase(contacts repo.ContactRepository, idGen IDGenerator, clock Clock) *ContactUsecase {
	return &ContactUsecase{
		contacts: contacts,
		idGen:    idGen,
		clock:    clock,
	}
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type ContactSubmitResult struct {
	Message string        `json:"message"`
	Contact model.Contact `json:"contact"`
}

// Submit はお問い合わせの受付（未ログインでも使える）
func (u *ContactUsecase) Submit(ctx context.Context, in ContactInput) (ContactSubmitResult, error) {
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Email) == "" ||
		strings.TrimSpace(in.Message) == "" {
		return ContactSubmitResult{}, NewHTTPError(http.StatusBadRequest, "name, email and message are required")
	}

	c := model.Contact{
		ID:        u.idGen.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     normalizeEmail(in.Email),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: u.clock.Now(),
	}

	created, err := u.contacts.Create(ctx, c)
	if err != nil {
		return ContactSubmitResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ContactSubmitResult{
		Message: "contact saved successfully",
		Contact: created,
	}, nil
}

// List は管理者向けのお問い合わせ一覧（新しい順）
func (u *ContactUsecase) List(ctx context.Context) ([]model.Contact, error) {
	contacts, err := u.contacts.ListRecent(ctx, contactListLimit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return contacts, nil
}
