package handler

import (
	"log"
	"net/http"
	"time"

	"odenehouk/internal/middleware"
	"odenehouk/internal/repository"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderRepo *repository.OrderRepository
}

func NewOrderHandler(orderRepo *repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orderRepo: orderRepo}
}

func (h *OrderHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	rows, err := h.orderRepo.List(scopeUserID(c), page)
	if err != nil {
		log.Printf("[orders] list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "limit": page.Limit, "offset": page.Offset})
}

type AccessHandler struct {
	accessRepo *repository.AccessRepository
}

func NewAccessHandler(accessRepo *repository.AccessRepository) *AccessHandler {
	return &AccessHandler{accessRepo: accessRepo}
}

func (h *AccessHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	rows, err := h.accessRepo.List(scopeUserID(c), page)
	if err != nil {
		log.Printf("[access] list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch access permissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "limit": page.Limit, "offset": page.Offset})
}

// Check reports whether the caller currently holds access to a product.
func (h *AccessHandler) Check(c *gin.Context) {
	productID, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	has, err := h.accessRepo.HasActive(middleware.GetUserID(c), productID, time.Now())
	if err != nil {
		log.Printf("[access] check: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "has_access": has})
}

type SubscriptionHandler struct {
	subRepo *repository.SubscriptionRepository
}

func NewSubscriptionHandler(subRepo *repository.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subRepo: subRepo}
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	rows, err := h.subRepo.List(scopeUserID(c), page)
	if err != nil {
		log.Printf("[subscriptions] list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "limit": page.Limit, "offset": page.Offset})
}
