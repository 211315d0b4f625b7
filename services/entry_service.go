package services

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/contactbox/models"
	"github.com/cppla/contactbox/notify"
	"github.com/cppla/contactbox/repository"
	"github.com/cppla/contactbox/utils"
)

// Notifier accepts messages for delivery.
type Notifier interface {
	Submit(msg notify.Message) *notify.Task
}

// EntryInput is a contact-form submission.
type EntryInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Place   string `json:"place" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// EntryService implements the entry operations.
type EntryService struct {
	repo     repository.EntryRepository
	notifier Notifier
	lists    listCache
	subject  string
	validate *validator.Validate
}

// NewEntryService wires an EntryService. subject is the confirmation mail subject.
func NewEntryService(repo repository.EntryRepository, notifier Notifier, cache utils.Cache, subject string) *EntryService {
	return &EntryService{
		repo:     repo,
		notifier: notifier,
		lists:    newListCache(cache, "entries"),
		subject:  subject,
		validate: newValidator(),
	}
}

// Create stores a submission and queues its confirmation mail.
// A failed or dropped mail never undoes the stored entry.
func (s *EntryService) Create(ctx context.Context, in EntryInput) (*models.Entry, error) {
	// Whitespace only counts as missing; stored values stay as submitted
	trimmed := EntryInput{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Email:   strings.TrimSpace(in.Email),
		Place:   strings.TrimSpace(in.Place),
		Message: strings.TrimSpace(in.Message),
	}
	if err := s.validate.Struct(trimmed); err != nil {
		return nil, toValidationError(err)
	}

	entry := &models.Entry{
		Name:    in.Name,
		Phone:   in.Phone,
		Email:   in.Email,
		Place:   in.Place,
		Message: in.Message,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, storeErr("save entry", err)
	}
	s.lists.invalidate(ctx)

	// Fire and forget: the dispatcher logs delivery failures.
	if _, err := s.submitConfirmation(entry); err != nil {
		utils.Sugar.Errorw("confirmation not queued", "entry", entry.ID, "error", err)
	}
	return entry, nil
}

// List returns every entry.
func (s *EntryService) List(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	key, hit := s.lists.get(ctx, &entries)
	if hit {
		return entries, nil
	}
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list entries", err)
	}
	s.lists.set(ctx, key, entries)
	return entries, nil
}

// Update merges patch into the entry. Present fields must not be blank.
func (s *EntryService) Update(ctx context.Context, id string, patch models.EntryPatch) (*models.Entry, error) {
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"name", patch.Name},
		{"phone", patch.Phone},
		{"email", patch.Email},
		{"place", patch.Place},
		{"message", patch.Message},
	} {
		if f.val != nil && strings.TrimSpace(*f.val) == "" {
			return nil, &ValidationError{Field: f.name}
		}
	}

	entry, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, storeErr("update entry", err)
	}
	s.lists.invalidate(ctx)
	return entry, nil
}

// Delete removes the entry.
func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete entry", err)
	}
	s.lists.invalidate(ctx)
	return nil
}

// Notify sends the confirmation mail for an existing entry again and waits for the result.
func (s *EntryService) Notify(ctx context.Context, id string) error {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeErr("load entry", err)
	}
	task, err := s.submitConfirmation(entry)
	if err != nil {
		return &NotificationError{Err: err}
	}
	if err := task.Wait(ctx); err != nil {
		return &NotificationError{Err: err}
	}
	return nil
}

func (s *EntryService) submitConfirmation(entry *models.Entry) (*notify.Task, error) {
	msg, err := notify.ConfirmationMessage(s.subject, notify.Confirmation{
		Name:    entry.Name,
		Phone:   entry.Phone,
		Email:   strings.TrimSpace(entry.Email),
		Place:   entry.Place,
		Message: entry.Message,
	})
	if err != nil {
		return nil, err
	}
	return s.notifier.Submit(msg), nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field()}
	}
	return err
}
