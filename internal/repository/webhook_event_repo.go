package repository

import (
	"errors"
	"time"

	"odenehouk/internal/models"

	"gorm.io/gorm"
)

// ErrEventRecorded is returned by MarkProcessed when another transaction has
// already recorded the same event id.
var ErrEventRecorded = errors.New("webhook event already recorded")

// WebhookEventRepository is the idempotency log for provider events. Both
// methods must run on the transaction that applies the event's effects.
type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) WithTx(tx *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: tx}
}

func (r *WebhookEventRepository) AlreadyProcessed(eventID string) (bool, error) {
	var n int64
	err := r.db.Model(&models.WebhookEvent{}).Where("event_id = ?", eventID).Limit(1).Count(&n).Error
	return n > 0, err
}

func (r *WebhookEventRepository) MarkProcessed(eventID, eventType string) error {
	err := r.db.Create(&models.WebhookEvent{
		EventID:   eventID,
		Type:      eventType,
		CreatedAt: time.Now(),
	}).Error
	if IsDuplicateKey(err) {
		return ErrEventRecorded
	}
	return err
}
