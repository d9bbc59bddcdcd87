package repository

import (
	"strconv"

	"odenehouk/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) ListActive() ([]models.Product, error) {
	var list []models.Product
	err := r.db.Where("is_active = ?", true).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActiveByID returns a product that can currently be bought.
func (r *ProductRepository) GetActiveByID(id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByRef resolves a product by numeric id or uuid.
func (r *ProductRepository) GetByRef(ref string) (*models.Product, error) {
	var p models.Product
	q := r.db
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("uuid = ?", ref)
	}
	if err := q.First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) AddFile(f *models.ProductFile) error {
	return r.db.Create(f).Error
}

func (r *ProductRepository) ListFiles(productID uint) ([]models.ProductFile, error) {
	var files []models.ProductFile
	err := r.db.Where("product_id = ?", productID).Order("created_at ASC").Find(&files).Error
	return files, err
}
