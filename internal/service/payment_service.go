package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"odenehouk/config"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"
	"odenehouk/internal/repository"
	"odenehouk/pkg/payment"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrForbidden       = errors.New("forbidden")
	ErrNotRefundable   = errors.New("payment is not refundable")
)

type PaymentIntentResult struct {
	PaymentIntentID string
	ClientSecret    string
	OrderID         uint
}

type RefundResult struct {
	RefundID string
	Applied  bool
}

// Actor identifies who performs an action, for authorization and audit.
type Actor struct {
	UserID    uint
	Role      string
	IP        string
	UserAgent string
}

type PaymentService struct {
	cfg        *config.Config
	db         *gorm.DB
	products   *repository.ProductRepository
	orders     *repository.OrderRepository
	payments   *repository.PaymentRepository
	audit      *repository.AuditLogRepository
	provider   payment.Provider
	reconciler *Reconciler
}

func NewPaymentService(cfg *config.Config, db *gorm.DB, provider payment.Provider, reconciler *Reconciler) *PaymentService {
	return &PaymentService{
		cfg:        cfg,
		db:         db,
		products:   repository.NewProductRepository(db),
		orders:     repository.NewOrderRepository(db),
		payments:   repository.NewPaymentRepository(db),
		audit:      repository.NewAuditLogRepository(db),
		provider:   provider,
		reconciler: reconciler,
	}
}

// CreateIntent creates a pending order, a provider payment intent and the
// initiated payment row in one transaction.
func (s *PaymentService) CreateIntent(ctx context.Context, userID, productID uint, idempotencyKey string) (*PaymentIntentResult, error) {
	p, err := loadPurchasable(s.products, productID, s.cfg.Payment.AllowedCurrencies)
	if err != nil {
		return nil, err
	}

	var out *PaymentIntentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := newPendingOrder(s.orders.WithTx(tx), userID, p, s.provider.Name())
		if err != nil {
			return err
		}
		pi, err := s.provider.CreatePaymentIntent(ctx, payment.PaymentRequest{
			AmountCents:    order.TotalAmountCents,
			Currency:       order.Currency,
			IdempotencyKey: idempotencyKey,
			Description:    fmt.Sprintf("Order %s - %s", order.UUID, p.Title),
			Metadata:       payment.OrderMetadata(order.ID, order.UUID, userID, p.ID),
		})
		if err != nil {
			return fmt.Errorf("create payment intent: %w", err)
		}
		if err := s.payments.WithTx(tx).Create(&models.Payment{
			OrderID:               order.ID,
			Provider:              s.provider.Name(),
			ProviderTransactionID: pi.Reference,
			AmountCents:           order.TotalAmountCents,
			Currency:              order.Currency,
			Status:                domain.PaymentInitiated,
		}); err != nil {
			return err
		}
		out = &PaymentIntentResult{PaymentIntentID: pi.Reference, ClientSecret: pi.ClientSecret, OrderID: order.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Refund refunds a succeeded payment through the provider and applies the
// refund transition locally. Only admins and the order owner may refund.
func (s *PaymentService) Refund(ctx context.Context, actor Actor, paymentID uint) (*RefundResult, error) {
	p, err := s.payments.GetByID(paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Order == nil {
		return nil, ErrPaymentNotFound
	}
	if actor.Role != domain.RoleAdmin && actor.UserID != p.Order.UserID {
		return nil, ErrForbidden
	}
	if p.Status != domain.PaymentSucceeded || p.ProviderTransactionID == "" {
		return nil, ErrNotRefundable
	}

	refund, err := s.provider.Refund(ctx, payment.RefundRequest{
		TransactionRef: p.ProviderTransactionID,
		IdempotencyKey: "refund-" + strconv.FormatUint(uint64(p.ID), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("provider refund: %w", err)
	}

	applied, err := s.reconciler.MarkRefunded(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]any{"refund_id": refund.Reference, "order_id": p.OrderID, "applied": applied})
	uid := actor.UserID
	if err := s.audit.Create(&models.AuditLog{
		UserID:     &uid,
		Action:     "payment.refund",
		Resource:   "payment",
		ResourceID: strconv.FormatUint(uint64(p.ID), 10),
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
		Metadata:   string(meta),
	}); err != nil {
		log.Printf("[payments] audit refund of payment %d: %v", p.ID, err)
	}
	return &RefundResult{RefundID: refund.Reference, Applied: applied}, nil
}
