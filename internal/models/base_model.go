package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides shared fields for all persistent models.
// UpdatedAt stays nil until the first mutation.
type BaseModel struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// BeforeCreate stamps the insert time in UTC.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}
