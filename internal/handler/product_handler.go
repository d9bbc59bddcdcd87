package handler

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"odenehouk/internal/domain"
	"odenehouk/internal/middleware"
	"odenehouk/internal/models"
	"odenehouk/internal/repository"
	"odenehouk/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductHandler struct {
	productRepo *repository.ProductRepository
	accessRepo  *repository.AccessRepository
	cloud       cloudinary.Client
}

func NewProductHandler(productRepo *repository.ProductRepository, accessRepo *repository.AccessRepository, cloud cloudinary.Client) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, accessRepo: accessRepo, cloud: cloud}
}

type CreateProductRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Description  string `json:"description"`
	Type         string `json:"type" binding:"required,oneof=digital coaching_1on1 subscription"`
	PriceCents   int64  `json:"price_cents" binding:"required,gt=0"`
	Currency     string `json:"currency" binding:"omitempty,len=3"`
	BillingCycle string `json:"billing_cycle" binding:"omitempty,oneof=monthly yearly"`
}

func (h *ProductHandler) List(c *gin.Context) {
	list, err := h.productRepo.ListActive()
	if err != nil {
		log.Printf("[products] list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get resolves a product by numeric id or uuid.
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.productRepo.GetByRef(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		log.Printf("[products] get %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == domain.ProductTypeSubscription && req.BillingCycle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "billing_cycle required for subscriptions"})
		return
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}
	p := &models.Product{
		UUID:         uuid.NewString(),
		Title:        strings.TrimSpace(req.Title),
		Slug:         slugify(req.Title) + "-" + uuid.NewString()[:8],
		Description:  req.Description,
		Type:         req.Type,
		PriceCents:   req.PriceCents,
		Currency:     currency,
		BillingCycle: req.BillingCycle,
		IsActive:     true,
	}
	if err := h.productRepo.Create(p); err != nil {
		log.Printf("[products] create: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Files lists downloadable assets to buyers with active access and to admins.
func (h *ProductHandler) Files(c *gin.Context) {
	p, err := h.productRepo.GetByRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if !middleware.IsAdmin(c) {
		has, err := h.accessRepo.HasActive(middleware.GetUserID(c), p.ID, time.Now())
		if err != nil {
			log.Printf("[products] access check: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
			return
		}
		if !has {
			c.JSON(http.StatusForbidden, gin.H{"error": "no access to this product"})
			return
		}
	}
	files, err := h.productRepo.ListFiles(p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch files"})
		return
	}
	c.JSON(http.StatusOK, files)
}

// UploadFile stores an asset for a product in Cloudinary and records it.
func (h *ProductHandler) UploadFile(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "file storage not configured"})
		return
	}
	p, err := h.productRepo.GetByRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	folder := "odenehouk/products/" + strconv.FormatUint(uint64(p.ID), 10)
	publicID := "file_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	fileType := fileTypeOf(file.Filename)

	var url string
	switch fileType {
	case "image":
		url, _, err = h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	case "video":
		url, _, err = h.cloud.UploadVideo(c.Request.Context(), f, folder, publicID)
	default:
		url, err = h.cloud.UploadRaw(c.Request.Context(), f, folder, publicID)
	}
	if err != nil {
		log.Printf("[products] upload for %d: %v", p.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	pf := &models.ProductFile{ProductID: p.ID, FilePath: url, FileType: fileType}
	if err := h.productRepo.AddFile(pf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record file"})
		return
	}
	c.JSON(http.StatusCreated, pf)
}

func fileTypeOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "image"
	case ".mp4", ".mov", ".webm":
		return "video"
	case ".pdf":
		return "pdf"
	default:
		return "file"
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "product"
	}
	return slug
}
