package repository

import (
	"time"

	"odenehouk/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts the order together with its items.
func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// LockByRef loads an order by durable id, or by opaque uuid when no id is
// given, holding a row lock until the surrounding transaction ends. When both
// are given they must name the same order.
func (r *OrderRepository) LockByRef(id uint, uuid string) (*models.Order, error) {
	q := forUpdate(r.db)
	switch {
	case id != 0:
		q = q.Where("id = ?", id)
	case uuid != "":
		q = q.Where("uuid = ?", uuid)
	default:
		return nil, gorm.ErrRecordNotFound
	}
	var o models.Order
	if err := q.First(&o).Error; err != nil {
		return nil, err
	}
	if id != 0 && uuid != "" && o.UUID != uuid {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *OrderRepository) LockByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := forUpdate(r.db).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus moves the order to status. providerPaymentID is stored when non-empty.
func (r *OrderRepository) UpdateStatus(o *models.Order, status, providerPaymentID string) error {
	updates := map[string]interface{}{
		"payment_status": status,
		"updated_at":     time.Now(),
	}
	if providerPaymentID != "" {
		updates["provider_payment_id"] = providerPaymentID
	}
	if err := r.db.Model(o).Updates(updates).Error; err != nil {
		return err
	}
	o.PaymentStatus = status
	if providerPaymentID != "" {
		o.ProviderPaymentID = providerPaymentID
	}
	return nil
}

// List returns orders newest first; userID 0 lists every user's orders.
func (r *OrderRepository) List(userID uint, page Page) ([]models.Order, error) {
	page = page.Normalize()
	q := r.db.Model(&models.Order{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var list []models.Order
	err := q.Preload("Items").Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, err
}
