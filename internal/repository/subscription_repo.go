package repository

import (
	"odenehouk/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

// GetByOrderID returns the subscription started by the order.
func (r *SubscriptionRepository) GetByOrderID(orderID uint) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.Where("order_id = ?", orderID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) Create(s *models.Subscription) error {
	return r.db.Create(s).Error
}

func (r *SubscriptionRepository) UpdateStatus(s *models.Subscription, status string) error {
	if err := r.db.Model(s).Update("status", status).Error; err != nil {
		return err
	}
	s.Status = status
	return nil
}

func (r *SubscriptionRepository) List(userID uint, page Page) ([]models.Subscription, error) {
	page = page.Normalize()
	q := r.db.Model(&models.Subscription{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var list []models.Subscription
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, err
}
