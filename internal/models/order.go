package models

import (
	"time"
)

type Order struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UUID              string    `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	TotalAmountCents  int64     `gorm:"not null" json:"total_amount_cents"`
	Currency          string    `gorm:"size:3;not null" json:"currency"`
	PaymentStatus     string    `gorm:"size:20;not null;index" json:"payment_status"` // pending | paid | refunded | failed
	PaymentProvider   string    `gorm:"size:50;not null" json:"payment_provider"`
	ProviderPaymentID string    `gorm:"size:100;index" json:"provider_payment_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	PriceCents int64     `gorm:"not null" json:"price_cents"`
	Quantity   int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
