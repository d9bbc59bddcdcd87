package models

import (
	"time"
)

// OutboxEvent is an order lifecycle notification staged inside the
// reconciliation transaction and relayed to the broker afterwards.
type OutboxEvent struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Type        string     `gorm:"size:50;not null;index" json:"type"`
	AggregateID string     `gorm:"size:36;not null;index" json:"aggregate_id"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
