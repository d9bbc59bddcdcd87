package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development without provider keys.
type StubProvider struct{}

func (s *StubProvider) Name() string { return "stripe" }

func (s *StubProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	id := fmt.Sprintf("stub_cs_%d_%d", time.Now().UnixNano(), req.OrderID)
	return &CheckoutSession{
		ID:  id,
		URL: req.SuccessURL,
	}, nil
}

func (s *StubProvider) CreatePaymentIntent(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	ref := fmt.Sprintf("stub_pi_%d", time.Now().UnixNano())
	return &PaymentResponse{
		Reference:    ref,
		ClientSecret: ref + "_secret",
		Status:       "requires_payment_method",
	}, nil
}

func (s *StubProvider) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	if req.TransactionRef == "" {
		return nil, fmt.Errorf("stub: transaction reference required")
	}
	return &RefundResponse{
		Reference: fmt.Sprintf("stub_re_%d", time.Now().UnixNano()),
		Status:    "succeeded",
	}, nil
}
