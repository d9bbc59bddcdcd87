package payment

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Kind is the provider-neutral meaning of an event. A declined attempt is not
// final: the buyer may retry and the same intent can still succeed. Only an
// expired checkout fails the order.
type Kind string

const (
	KindPaymentConfirmed Kind = "payment_confirmed"
	KindPaymentRefunded  Kind = "payment_refunded"
	KindPaymentDeclined  Kind = "payment_declined"
	KindPaymentFailed    Kind = "payment_failed"
	KindUnknown          Kind = "unknown"
)

// Metadata keys set on checkout sessions and payment intents.
const (
	MetaOrderID   = "order_id"
	MetaOrderUUID = "order_uuid"
	MetaUserID    = "user_id"
	MetaProductID = "product_id"
)

var kindByType = map[string]Kind{
	"checkout.session.completed":    KindPaymentConfirmed,
	"payment_intent.succeeded":      KindPaymentConfirmed,
	"charge.refunded":               KindPaymentRefunded,
	"charge.refund.updated":         KindPaymentRefunded,
	"payment_intent.payment_failed": KindPaymentDeclined,
	"checkout.session.expired":      KindPaymentFailed,
}

// KindOf maps a provider event type to its Kind.
func KindOf(eventType string) Kind {
	if k, ok := kindByType[eventType]; ok {
		return k
	}
	return KindUnknown
}

// Event is a verified provider event.
type Event struct {
	ID      string
	Type    string
	Kind    Kind
	Created time.Time
	Data    EventData
}

// EventData is the subset of the provider object the reconciler acts on.
type EventData struct {
	ObjectID       string
	TransactionRef string
	AmountCents    int64
	HasAmount      bool
	Currency       string
	Metadata       map[string]string
}

func (d EventData) OrderID() uint     { return parseUint(d.Metadata[MetaOrderID]) }
func (d EventData) OrderUUID() string { return d.Metadata[MetaOrderUUID] }
func (d EventData) UserID() uint      { return parseUint(d.Metadata[MetaUserID]) }
func (d EventData) ProductID() uint   { return parseUint(d.Metadata[MetaProductID]) }

type rawEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object rawObject `json:"object"`
	} `json:"data"`
}

type rawObject struct {
	ID             string          `json:"id"`
	Object         string          `json:"object"`
	PaymentIntent  json.RawMessage `json:"payment_intent"`
	Amount         *int64          `json:"amount"`
	AmountTotal    *int64          `json:"amount_total"`
	AmountReceived *int64          `json:"amount_received"`
	Currency       string          `json:"currency"`
	Metadata       map[string]any  `json:"metadata"`
}

// ConstructEvent verifies the raw payload and parses it. Nothing is parsed
// before the signature checks out.
func ConstructEvent(payload []byte, header, secret string, tolerance time.Duration) (*Event, error) {
	if err := VerifySignature(payload, header, secret, tolerance); err != nil {
		return nil, err
	}
	return ParseEvent(payload)
}

// ParseEvent decodes an already verified payload.
func ParseEvent(payload []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, verificationErr("malformed event payload: %v", err)
	}
	if raw.ID == "" || raw.Type == "" {
		return nil, verificationErr("event id and type are required")
	}

	obj := raw.Data.Object
	evt := &Event{
		ID:   raw.ID,
		Type: raw.Type,
		Kind: KindOf(raw.Type),
		Data: EventData{
			ObjectID:       obj.ID,
			TransactionRef: obj.transactionRef(),
			Currency:       strings.ToUpper(obj.Currency),
			Metadata:       stringifyMetadata(obj.Metadata),
		},
	}
	if raw.Created > 0 {
		evt.Created = time.Unix(raw.Created, 0)
	}
	if amt := obj.amount(); amt != nil {
		evt.Data.AmountCents = *amt
		evt.Data.HasAmount = true
	}
	return evt, nil
}

// transactionRef is the payment intent id, whether the object is the intent
// itself or references it (checkout sessions, charges).
func (o rawObject) transactionRef() string {
	if len(o.PaymentIntent) > 0 {
		var s string
		if err := json.Unmarshal(o.PaymentIntent, &s); err == nil && s != "" {
			return s
		}
		var expanded struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(o.PaymentIntent, &expanded); err == nil && expanded.ID != "" {
			return expanded.ID
		}
	}
	if o.Object == "payment_intent" || strings.HasPrefix(o.ID, "pi_") {
		return o.ID
	}
	return ""
}

func (o rawObject) amount() *int64 {
	switch {
	case o.AmountTotal != nil:
		return o.AmountTotal
	case o.AmountReceived != nil && *o.AmountReceived > 0:
		return o.AmountReceived
	default:
		return o.Amount
	}
}

func stringifyMetadata(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		}
	}
	return out
}

func parseUint(s string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

func uintString(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}
