package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"odenehouk/config"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"
	"odenehouk/internal/repository"
	"odenehouk/pkg/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidPrice        = errors.New("invalid product price")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

type CheckoutResult struct {
	SessionID string
	URL       string
	OrderID   uint
	OrderUUID string
}

// CheckoutService opens hosted checkout sessions for single products.
type CheckoutService struct {
	cfg      *config.Config
	db       *gorm.DB
	products *repository.ProductRepository
	orders   *repository.OrderRepository
	provider payment.Provider
}

func NewCheckoutService(cfg *config.Config, db *gorm.DB, provider payment.Provider) *CheckoutService {
	return &CheckoutService{
		cfg:      cfg,
		db:       db,
		products: repository.NewProductRepository(db),
		orders:   repository.NewOrderRepository(db),
		provider: provider,
	}
}

// loadPurchasable returns the active product if it can be sold as configured.
func loadPurchasable(products *repository.ProductRepository, productID uint, allowed []string) (*models.Product, error) {
	p, err := products.GetActiveByID(productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.PriceCents <= 0 {
		return nil, ErrInvalidPrice
	}
	ok := false
	for _, c := range allowed {
		if strings.EqualFold(c, p.Currency) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, ErrUnsupportedCurrency
	}
	return p, nil
}

// newPendingOrder inserts a pending single-item order for product.
func newPendingOrder(orders *repository.OrderRepository, userID uint, p *models.Product, provider string) (*models.Order, error) {
	o := &models.Order{
		UUID:             uuid.NewString(),
		UserID:           userID,
		TotalAmountCents: p.PriceCents,
		Currency:         strings.ToUpper(p.Currency),
		PaymentStatus:    domain.OrderPending,
		PaymentProvider:  provider,
		Items: []models.OrderItem{{
			ProductID:  p.ID,
			PriceCents: p.PriceCents,
			Quantity:   1,
		}},
	}
	if err := orders.Create(o); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateSession records a pending order and opens a provider checkout for it.
// The order is only kept if the provider accepted the session.
func (s *CheckoutService) CreateSession(ctx context.Context, userID, productID uint) (*CheckoutResult, error) {
	p, err := loadPurchasable(s.products, productID, s.cfg.Payment.AllowedCurrencies)
	if err != nil {
		return nil, err
	}

	var out *CheckoutResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := newPendingOrder(s.orders.WithTx(tx), userID, p, s.provider.Name())
		if err != nil {
			return err
		}
		base := strings.TrimRight(s.cfg.Server.FrontendURL, "/")
		sess, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
			OrderID:     order.ID,
			OrderUUID:   order.UUID,
			UserID:      userID,
			ProductID:   p.ID,
			Title:       p.Title,
			AmountCents: p.PriceCents,
			Currency:    order.Currency,
			SuccessURL:  base + "/?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:   fmt.Sprintf("%s/product/%s", base, p.UUID),
		})
		if err != nil {
			return fmt.Errorf("create checkout session: %w", err)
		}
		out = &CheckoutResult{SessionID: sess.ID, URL: sess.URL, OrderID: order.ID, OrderUUID: order.UUID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
