package models

import (
	"time"
)

type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UUID                   string     `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	ProductID              uint       `gorm:"not null;index" json:"product_id"`
	OrderID                uint       `gorm:"not null;uniqueIndex" json:"order_id"`
	ProviderSubscriptionID string     `gorm:"size:100" json:"provider_subscription_id"`
	Status                 string     `gorm:"size:20;not null" json:"status"`
	BillingCycle           string     `gorm:"size:20;not null" json:"billing_cycle"`
	StartedAt              time.Time  `gorm:"not null" json:"started_at"`
	EndsAt                 *time.Time `json:"ends_at"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
