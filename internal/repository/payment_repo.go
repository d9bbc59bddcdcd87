package repository

import (
	"odenehouk/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Preload("Order").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByProviderTransactionID returns the newest payment carrying the provider
// transaction reference.
func (r *PaymentRepository) GetByProviderTransactionID(ref string) (*models.Payment, error) {
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var p models.Payment
	err := r.db.Where("provider_transaction_id = ?", ref).Order("id DESC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) LockByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := forUpdate(r.db).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindAttempt returns the payment row for the order with the given provider
// reference, if one was recorded when the payment was initiated.
func (r *PaymentRepository) FindAttempt(orderID uint, ref string) (*models.Payment, error) {
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var p models.Payment
	err := r.db.Where("order_id = ? AND provider_transaction_id = ?", orderID, ref).Order("id DESC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateStatus(p *models.Payment, status string) error {
	if err := r.db.Model(p).Update("status", status).Error; err != nil {
		return err
	}
	p.Status = status
	return nil
}
