// Package repository persists entries and images.
package repository

import (
	"context"
	"errors"

	"github.com/cppla/contactbox/models"
)

// ErrNotFound is returned when no record matches the identifier.
var ErrNotFound = errors.New("record not found")

// EntryRepository stores contact-form entries.
type EntryRepository interface {
	Create(ctx context.Context, e *models.Entry) error
	List(ctx context.Context) ([]models.Entry, error)
	Get(ctx context.Context, id string) (*models.Entry, error)
	Update(ctx context.Context, id string, patch models.EntryPatch) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
}

// ImageRepository stores uploaded image records.
type ImageRepository interface {
	Create(ctx context.Context, img *models.Image) error
	List(ctx context.Context) ([]models.Image, error)
	Get(ctx context.Context, id string) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}
