package repository

import (
	"odenehouk/internal/models"

	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) WithTx(tx *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

func (r *RefreshTokenRepository) Create(t *models.RefreshToken) error {
	return r.db.Create(t).Error
}

func (r *RefreshTokenRepository) GetByHash(hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.db.Where("token_hash = ?", hash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke marks the token revoked. It returns false when the token was already
// revoked, so concurrent rotations of the same token only succeed once.
func (r *RefreshTokenRepository) Revoke(id uint) (bool, error) {
	res := r.db.Model(&models.RefreshToken{}).Where("id = ? AND revoked = ?", id, false).Update("revoked", true)
	return res.RowsAffected > 0, res.Error
}

func (r *RefreshTokenRepository) RevokeByHash(hash string) error {
	return r.db.Model(&models.RefreshToken{}).Where("token_hash = ?", hash).Update("revoked", true).Error
}
