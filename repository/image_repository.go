package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/contactbox/models"
)

// GormImageRepository keeps image records in a SQL database.
type GormImageRepository struct {
	db *gorm.DB
}

// NewGormImageRepository creates a repository over db.
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	return &GormImageRepository{db: db}
}

func (r *GormImageRepository) Create(ctx context.Context, img *models.Image) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *GormImageRepository) List(ctx context.Context) ([]models.Image, error) {
	images := []models.Image{}
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *GormImageRepository) Get(ctx context.Context, id string) (*models.Image, error) {
	var img models.Image
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *GormImageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Image{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
