package models

import (
	"time"
)

// User is an account that owns artifacts and tuning profiles.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName  *string   `gorm:"size:100" json:"displayName"`
	Avatar       *string   `gorm:"size:500" json:"avatar"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName overrides the gorm table name.
func (User) TableName() string {
	return "users"
}
