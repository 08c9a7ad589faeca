package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel defines the common fields for all models: an auto-incrementing
// ID plus creation and update timestamps. For friend requests CreatedAt is
// the request time and UpdatedAt moves on every status transition.
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
