package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPaymentConfirmed, KindOf("checkout.session.completed"))
	assert.Equal(t, KindPaymentConfirmed, KindOf("payment_intent.succeeded"))
	assert.Equal(t, KindPaymentRefunded, KindOf("charge.refunded"))
	assert.Equal(t, KindPaymentRefunded, KindOf("charge.refund.updated"))
	assert.Equal(t, KindPaymentDeclined, KindOf("payment_intent.payment_failed"))
	assert.Equal(t, KindPaymentFailed, KindOf("checkout.session.expired"))
	assert.Equal(t, KindUnknown, KindOf("customer.created"))
}

func TestConstructEvent_CheckoutSession(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"payment_intent": "pi_9",
			"amount_total": 1900,
			"currency": "usd",
			"metadata": {"order_id": "42", "order_uuid": "u-42", "product_id": "7", "user_id": "3"}
		}}
	}`)

	evt, err := ConstructEvent(payload, Sign(payload, testSecret, time.Now()), testSecret, DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, KindPaymentConfirmed, evt.Kind)
	assert.Equal(t, "pi_9", evt.Data.TransactionRef)
	assert.True(t, evt.Data.HasAmount)
	assert.Equal(t, int64(1900), evt.Data.AmountCents)
	assert.Equal(t, "USD", evt.Data.Currency)
	assert.Equal(t, uint(42), evt.Data.OrderID())
	assert.Equal(t, "u-42", evt.Data.OrderUUID())
	assert.Equal(t, uint(7), evt.Data.ProductID())
	assert.Equal(t, uint(3), evt.Data.UserID())
}

func TestParseEvent_PaymentIntentAndCharge(t *testing.T) {
	pi, err := ParseEvent([]byte(`{"id":"evt_2","type":"payment_intent.succeeded",
		"data":{"object":{"id":"pi_5","object":"payment_intent","amount":500,"amount_received":500,"currency":"usd","metadata":{"order_id":12}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "pi_5", pi.Data.TransactionRef)
	assert.Equal(t, uint(12), pi.Data.OrderID())

	ch, err := ParseEvent([]byte(`{"id":"evt_3","type":"charge.refunded",
		"data":{"object":{"id":"ch_1","object":"charge","payment_intent":{"id":"pi_5"},"amount":500,"currency":"usd"}}}`))
	require.NoError(t, err)
	assert.Equal(t, KindPaymentRefunded, ch.Kind)
	assert.Equal(t, "pi_5", ch.Data.TransactionRef)
	assert.Empty(t, ch.Data.OrderUUID())
}

func TestParseEvent_NoAmount(t *testing.T) {
	evt, err := ParseEvent([]byte(`{"id":"evt_4","type":"checkout.session.completed","data":{"object":{"metadata":{"order_id":"1"}}}}`))
	require.NoError(t, err)
	assert.False(t, evt.Data.HasAmount)
}

func TestConstructEvent_RejectsBeforeParsing(t *testing.T) {
	_, err := ConstructEvent([]byte(`not json`), "t=1,v1=00", testSecret, DefaultTolerance)
	var ve *VerificationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "signature mismatch", ve.Reason)
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"x"}`))
	var ve *VerificationError
	require.True(t, errors.As(err, &ve))

	_, err = ParseEvent([]byte(`{`))
	require.True(t, errors.As(err, &ve))
}
