package models

import (
	"time"
)

// WebhookEvent records a provider event id that has been fully handled. The
// row is written in the same transaction as the event's side effects.
type WebhookEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"size:100;uniqueIndex;not null" json:"event_id"`
	Type      string    `gorm:"size:100;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
