package payment

import (
	"context"
)

// CheckoutRequest describes a hosted checkout for a single product.
type CheckoutRequest struct {
	OrderID     uint
	OrderUUID   string
	UserID      uint
	ProductID   uint
	Title       string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentRequest struct {
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

type PaymentResponse struct {
	Reference    string
	ClientSecret string
	Status       string
}

// RefundRequest refunds a payment by provider transaction reference. A zero
// amount refunds the full charge.
type RefundRequest struct {
	TransactionRef string
	AmountCents    int64
	IdempotencyKey string
}

type RefundResponse struct {
	Reference string
	Status    string
}

// Provider is the outbound side of the payment processor. Inbound events arrive
// through the webhook and are verified with ConstructEvent.
type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
}

// OrderMetadata is the metadata attached to every provider object so the
// webhook can find the order again.
func OrderMetadata(orderID uint, orderUUID string, userID, productID uint) map[string]string {
	return map[string]string{
		MetaOrderID:   uintString(orderID),
		MetaOrderUUID: orderUUID,
		MetaUserID:    uintString(userID),
		MetaProductID: uintString(productID),
	}
}
