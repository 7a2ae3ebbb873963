package models

import (
	"time"
)

// Artifact is the persisted record of one successful generation.
type Artifact struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"index" json:"userId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	ImageURL  string    `gorm:"type:text;not null" json:"imageUrl"`
	Width     int       `gorm:"not null" json:"width"`
	Height    int       `gorm:"not null" json:"height"`
	Model     string    `gorm:"size:100;not null" json:"model"`
	Metadata  JSONMap   `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides the gorm table name.
func (Artifact) TableName() string {
	return "artifacts"
}
