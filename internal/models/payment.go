package models

import (
	"time"
)

// Payment is one attempt against an order. Several may exist per order, at
// most one of them succeeded.
type Payment struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	OrderID               uint      `gorm:"not null;index" json:"order_id"`
	Provider              string    `gorm:"size:50;not null" json:"provider"`
	ProviderTransactionID string    `gorm:"size:100;index" json:"provider_transaction_id"`
	AmountCents           int64     `gorm:"not null" json:"amount_cents"`
	Currency              string    `gorm:"size:3;not null" json:"currency"`
	Status                string    `gorm:"size:20;not null;index" json:"status"` // initiated | succeeded | refunded | failed
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	Order *Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
