package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image records an uploaded file. Filename is the opaque storage key, never the client supplied name.
type Image struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Filename     string    `gorm:"size:255;not null;uniqueIndex" json:"filename" bson:"filename"`
	OriginalName string    `gorm:"size:255" json:"originalName" bson:"originalName"`
	ContentType  string    `gorm:"size:128" json:"contentType" bson:"contentType"`
	Size         int64     `json:"size" bson:"size"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// BeforeCreate assigns the identifier and creation time when they are not set.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	return nil
}

// ImageLink is the public projection of an Image used by the listing endpoint.
type ImageLink struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
