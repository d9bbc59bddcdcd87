package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeProvider_CreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1900", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[order_id]"))
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test")
	resp, err := p.CreatePaymentIntent(context.Background(), PaymentRequest{
		AmountCents:    1900,
		Currency:       "USD",
		IdempotencyKey: "idem-1",
		Metadata:       OrderMetadata(42, "u-42", 3, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", resp.Reference)
	assert.Equal(t, "pi_1_secret", resp.ClientSecret)
}

func TestStripeProvider_CheckoutSessionCarriesMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "7", r.PostForm.Get("metadata[product_id]"))
		assert.Equal(t, "u-42", r.PostForm.Get("payment_intent_data[metadata][order_uuid]"))
		assert.Equal(t, "Guide", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "1900", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		w.Write([]byte(`{"id":"cs_1","url":"https://checkout.example/cs_1"}`))
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test")
	sess, err := p.CreateCheckoutSession(context.Background(), CheckoutRequest{
		OrderID: 42, OrderUUID: "u-42", UserID: 3, ProductID: 7,
		Title: "Guide", AmountCents: 1900, Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "https://checkout.example/cs_1", sess.URL)
}

func TestStripeProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"charge already refunded"}}`))
	}))
	defer srv.Close()

	_, err := NewStripeProvider(srv.URL, "sk_test").Refund(context.Background(), RefundRequest{TransactionRef: "pi_1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Equal(t, "charge already refunded", apiErr.Message)
}

func TestStripeProvider_PartialRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		assert.Equal(t, "refund-42", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_1", r.PostForm.Get("payment_intent"))
		assert.Equal(t, "500", r.PostForm.Get("amount"))
		w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded"}`))
	}))
	defer srv.Close()

	resp, err := NewStripeProvider(srv.URL, "sk_test").Refund(context.Background(), RefundRequest{
		TransactionRef: "pi_1",
		AmountCents:    500,
		IdempotencyKey: "refund-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_1", resp.Reference)
	assert.Equal(t, "succeeded", resp.Status)
}
