package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/contactbox/models"
)

// GormEntryRepository keeps entries in a SQL database.
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a repository over db.
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

func (r *GormEntryRepository) Create(ctx context.Context, e *models.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormEntryRepository) List(ctx context.Context) ([]models.Entry, error) {
	entries := []models.Entry{}
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormEntryRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	return firstEntry(r.db.WithContext(ctx), id)
}

// Update applies patch and returns the stored record after the change.
func (r *GormEntryRepository) Update(ctx context.Context, id string, patch models.EntryPatch) (*models.Entry, error) {
	var updated *models.Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := firstEntry(tx, id)
		if err != nil {
			return err
		}
		if cols := patch.Columns(); len(cols) > 0 {
			cols["updated_at"] = time.Now()
			if err := tx.Model(&models.Entry{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
			if entry, err = firstEntry(tx, id); err != nil {
				return err
			}
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormEntryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Entry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func firstEntry(db *gorm.DB, id string) (*models.Entry, error) {
	var entry models.Entry
	if err := db.Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}
