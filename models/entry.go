package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is a contact-form submission.
type Entry struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Name      string    `gorm:"size:255;not null" json:"name" bson:"name"`
	Phone     string    `gorm:"size:64;not null" json:"phone" bson:"phone"`
	Email     string    `gorm:"size:255;not null" json:"email" bson:"email"`
	Place     string    `gorm:"size:255;not null" json:"place" bson:"place"`
	Message   string    `gorm:"type:text;not null" json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate assigns the identifier and timestamps when they are not set.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return nil
}

// EntryPatch carries the fields of a partial update. Nil fields are left untouched.
type EntryPatch struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Place   *string `json:"place"`
	Message *string `json:"message"`
}

// Columns returns the patch as a column -> value map, skipping nil fields.
func (p EntryPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("name", p.Name)
	set("phone", p.Phone)
	set("email", p.Email)
	set("place", p.Place)
	set("message", p.Message)
	return cols
}
