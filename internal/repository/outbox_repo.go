package repository

import (
	"encoding/json"
	"time"

	"odenehouk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) WithTx(tx *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: tx}
}

// Add stages an event with a JSON payload.
func (r *OutboxRepository) Add(eventType, aggregateID string, payload any) (*models.OutboxEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	evt := &models.OutboxEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     string(b),
		CreatedAt:   time.Now(),
	}
	if err := r.db.Create(evt).Error; err != nil {
		return nil, err
	}
	return evt, nil
}

// FindUnpublished returns the oldest unpublished events. Rows that already
// failed maxAttempts times are parked and left out; zero means no cap.
func (r *OutboxRepository) FindUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var list []models.OutboxEvent
	q := r.db.Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}
	err := q.Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkPublished(id string) error {
	return r.db.Model(&models.OutboxEvent{}).Where("id = ?", id).Update("published_at", time.Now()).Error
}

func (r *OutboxRepository) IncrementAttempts(id string) error {
	return r.db.Model(&models.OutboxEvent{}).Where("id = ?", id).UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}
