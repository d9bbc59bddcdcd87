package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"odenehouk/config"
	"odenehouk/internal/service"
	"odenehouk/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// EventReconciler applies a verified provider event.
type EventReconciler interface {
	Reconcile(ctx context.Context, evt *payment.Event) (*service.ReconcileResult, error)
}

type PaymentWebhookHandler struct {
	reconciler EventReconciler
	cfg        *config.PaymentConfig
}

func NewPaymentWebhookHandler(reconciler EventReconciler, cfg *config.PaymentConfig) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{reconciler: reconciler, cfg: cfg}
}

// Handle verifies the raw body against the signature header before anything
// parses it, then reconciles the event. 200 tells the provider to stop
// retrying; 500 asks it to redeliver.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	evt, err := payment.ConstructEvent(body, c.GetHeader(payment.SignatureHeader), h.cfg.WebhookSecret, h.cfg.WebhookTolerance)
	if err != nil {
		var ve *payment.VerificationError
		if errors.As(err, &ve) {
			log.Printf("[webhook] rejected: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook Error: " + ve.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}

	res, err := h.reconciler.Reconcile(c.Request.Context(), evt)
	if err != nil && !errors.Is(err, service.ErrDuplicateEvent) {
		log.Printf("[webhook] %s (%s) failed: %v", evt.ID, evt.Type, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if res != nil {
		log.Printf("[webhook] %s (%s) %s", evt.ID, evt.Type, res.Outcome)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
