package handler

import (
	"errors"
	"log"
	"net/http"

	"odenehouk/internal/middleware"
	"odenehouk/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type CreatePaymentRequest struct {
	ProductID      uint   `json:"productId" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey" binding:"max=255"`
}

type RefundRequest struct {
	PaymentID uint `json:"paymentId" binding:"required"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}
	res, err := h.svc.CreateIntent(c.Request.Context(), middleware.GetUserID(c), req.ProductID, key)
	if err != nil {
		if writeProductError(c, err) {
			return
		}
		log.Printf("[payments] create intent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": res.ClientSecret, "paymentIntentId": res.PaymentIntentID, "orderId": res.OrderID})
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paymentId required"})
		return
	}
	actor := service.Actor{
		UserID:    middleware.GetUserID(c),
		Role:      middleware.GetRole(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	res, err := h.svc.Refund(c.Request.Context(), actor, req.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, service.ErrNotRefundable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[payments] refund %d: %v", req.PaymentID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refund failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "refundId": res.RefundID})
}
