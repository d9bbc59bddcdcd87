package repository

import (
	"time"

	"odenehouk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) WithTx(tx *gorm.DB) *AccessRepository {
	return &AccessRepository{db: tx}
}

// Grant inserts an access row unless the (user, product, order) triple already
// exists. created is false when the grant was already present.
func (r *AccessRepository) Grant(userID, productID, orderID uint, expiresAt *time.Time) (created bool, err error) {
	ap := models.AccessPermission{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		GrantedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ap)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasActive reports whether the user holds an unexpired grant for the product.
func (r *AccessRepository) HasActive(userID, productID uint, now time.Time) (bool, error) {
	var n int64
	err := r.db.Model(&models.AccessPermission{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&n).Error
	return n > 0, err
}

// List returns grants newest first; userID 0 lists all users.
func (r *AccessRepository) List(userID uint, page Page) ([]models.AccessPermission, error) {
	page = page.Normalize()
	q := r.db.Model(&models.AccessPermission{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var list []models.AccessPermission
	err := q.Order("granted_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, err
}
