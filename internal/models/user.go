package models

import (
	"time"

	"odenehouk/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            string         `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	Email           string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash    string         `gorm:"size:255;not null" json:"-"`
	Role            string         `gorm:"size:20;not null;index" json:"role"` // customer | admin
	Status          string         `gorm:"size:20;not null;default:'active'" json:"status"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }
