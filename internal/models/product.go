package models

import (
	"time"

	"odenehouk/internal/domain"
)

type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         string    `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Type         string    `gorm:"size:30;not null" json:"type"` // digital | coaching_1on1 | subscription
	PriceCents   int64     `gorm:"not null" json:"price_cents"`
	Currency     string    `gorm:"size:3;not null;default:'USD'" json:"currency"`
	BillingCycle string    `gorm:"size:20" json:"billing_cycle,omitempty"` // monthly | yearly, subscriptions only
	IsActive     bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Files []ProductFile `gorm:"foreignKey:ProductID" json:"files,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// IsSubscription reports whether buying the product starts a recurring subscription.
func (p *Product) IsSubscription() bool {
	return p.Type == domain.ProductTypeSubscription && p.BillingCycle != ""
}

// SubscriptionEnd returns when a subscription started at start runs out.
func (p *Product) SubscriptionEnd(start time.Time) time.Time {
	if p.BillingCycle == domain.BillingYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

type ProductFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	FilePath  string    `gorm:"size:512;not null" json:"file_path"`
	FileType  string    `gorm:"size:20;not null" json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProductFile) TableName() string {
	return "product_files"
}
