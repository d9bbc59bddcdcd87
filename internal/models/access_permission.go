package models

import (
	"time"
)

// AccessPermission entitles a user to a product. Rows are never mutated once
// granted; expiry is checked passively by readers.
type AccessPermission struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_access_user_product_order,priority:1" json:"user_id"`
	ProductID uint       `gorm:"not null;uniqueIndex:idx_access_user_product_order,priority:2;index" json:"product_id"`
	OrderID   uint       `gorm:"not null;uniqueIndex:idx_access_user_product_order,priority:3" json:"order_id"`
	GrantedAt time.Time  `gorm:"not null" json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (AccessPermission) TableName() string {
	return "access_permissions"
}

func (a *AccessPermission) ActiveAt(t time.Time) bool {
	return a.ExpiresAt == nil || a.ExpiresAt.After(t)
}
