package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeProvider creates checkout sessions, payment intents and refunds
// through the Stripe SDK. Each provider owns its client so keys and base URLs
// never leak through the SDK's package-level state.
type StripeProvider struct {
	sc *client.API
}

// NewStripeProvider builds a provider for secretKey. An empty baseURL uses the
// live API endpoint.
func NewStripeProvider(baseURL, secretKey string) *StripeProvider {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		MaxNetworkRetries: stripe.Int64(2),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if baseURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(baseURL, "/"))
	}
	sc := &client.API{}
	sc.Init(secretKey, stripe.NewBackendsWithConfig(cfg))
	return &StripeProvider{sc: sc}
}

func (p *StripeProvider) Name() string { return "stripe" }

// APIError is an error response from the provider.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %d %s: %s", e.StatusCode, e.Type, e.Message)
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	meta := compactMetadata(OrderMetadata(req.OrderID, req.OrderUUID, req.UserID, req.ProductID))
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Title),
				},
			},
		}},
		SuccessURL: optional(req.SuccessURL),
		CancelURL:  optional(req.CancelURL),
		// the payment intent carries the same metadata so intent-level events resolve too
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: meta},
	}
	params.Context = ctx
	for k, v := range meta {
		params.AddMetadata(k, v)
	}

	sess, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, apiError("create checkout session", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.AmountCents),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: optional(req.Description),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range compactMetadata(req.Metadata) {
		params.AddMetadata(k, v)
	}

	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, apiError("create payment intent", err)
	}
	return &PaymentResponse{Reference: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(req.TransactionRef)}
	if req.AmountCents > 0 {
		params.Amount = stripe.Int64(req.AmountCents)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	rf, err := p.sc.Refunds.New(params)
	if err != nil {
		return nil, apiError("create refund", err)
	}
	return &RefundResponse{Reference: rf.ID, Status: string(rf.Status)}, nil
}

// apiError converts SDK errors to *APIError. Transport errors pass through.
func apiError(op string, err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("stripe: %s: %w", op, err)
	}
	log.Printf("[stripe] %s failed: %d %s", op, se.HTTPStatusCode, se.Msg)
	return &APIError{
		StatusCode: se.HTTPStatusCode,
		Type:       string(se.Type),
		Code:       string(se.Code),
		Message:    se.Msg,
	}
}

func compactMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
