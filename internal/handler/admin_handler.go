package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"odenehouk/internal/domain"
	"odenehouk/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	adminRepo *repository.AdminRepository
}

func NewAdminHandler(adminRepo *repository.AdminRepository) *AdminHandler {
	return &AdminHandler{adminRepo: adminRepo}
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(time.Now())
	if err != nil {
		log.Printf("[admin] stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := pageFromQuery(c)
	users, total, err := h.adminRepo.ListUsers(c.Query("search"), c.Query("role"), page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": users, "total": total, "limit": page.Limit, "offset": page.Offset})
}

// UpdateUserStatus handles PATCH /api/admin/users/:id.
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=active suspended"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.adminRepo.UpdateUserStatus(id, req.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// ListPayments handles GET /api/admin/payments?status=succeeded.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", domain.PaymentInitiated, domain.PaymentSucceeded, domain.PaymentRefunded, domain.PaymentFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	page := pageFromQuery(c)
	list, total, err := h.adminRepo.ListPayments(status, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": list, "total": total, "limit": page.Limit, "offset": page.Offset})
}

func (h *AdminHandler) ListWebhookEvents(c *gin.Context) {
	page := pageFromQuery(c)
	list, total, err := h.adminRepo.ListWebhookEvents(page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list webhook events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": list, "total": total, "limit": page.Limit, "offset": page.Offset})
}

func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	page := pageFromQuery(c)
	list, total, err := h.adminRepo.ListAuditLogs(page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": list, "total": total, "limit": page.Limit, "offset": page.Offset})
}

// Analytics handles GET /api/admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	revenue, err := h.adminRepo.RevenueByDay(time.Now().AddDate(0, 0, -days))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revenue": revenue, "days": days})
}
