package handler

import (
	"errors"
	"log"
	"net/http"

	"odenehouk/internal/middleware"
	"odenehouk/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	svc *service.CheckoutService
}

func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type CheckoutRequest struct {
	ProductID uint `json:"productId" binding:"required"`
}

func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
		return
	}
	res, err := h.svc.CreateSession(c.Request.Context(), middleware.GetUserID(c), req.ProductID)
	if err != nil {
		if writeProductError(c, err) {
			return
		}
		log.Printf("[checkout] create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.URL, "sessionId": res.SessionID, "orderId": res.OrderID})
}

// writeProductError maps purchase validation errors; it reports whether it wrote a response.
func writeProductError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, service.ErrInvalidPrice), errors.Is(err, service.ErrUnsupportedCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		return false
	}
	return true
}
