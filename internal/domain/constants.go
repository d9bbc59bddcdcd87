package domain

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// Order payment_status values. Allowed transitions are pending->paid,
// paid->refunded and pending->failed.
const (
	OrderPending  = "pending"
	OrderPaid     = "paid"
	OrderRefunded = "refunded"
	OrderFailed   = "failed"
)

const (
	PaymentInitiated = "initiated"
	PaymentSucceeded = "succeeded"
	PaymentRefunded  = "refunded"
	PaymentFailed    = "failed"
)

const (
	ProductTypeDigital      = "digital"
	ProductTypeCoaching     = "coaching_1on1"
	ProductTypeSubscription = "subscription"
)

const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// Outbox event types published after a reconciled transition commits.
const (
	OutboxOrderPaid     = "order.paid"
	OutboxOrderRefunded = "order.refunded"
	OutboxOrderFailed   = "order.failed"
)

var orderTransitions = map[string][]string{
	OrderPending: {OrderPaid, OrderFailed},
	OrderPaid:    {OrderRefunded},
}

// CanTransitionOrder reports whether an order may move from one payment status to another.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var paymentTransitions = map[string][]string{
	PaymentInitiated: {PaymentSucceeded, PaymentFailed},
	PaymentSucceeded: {PaymentRefunded},
}

func CanTransitionPayment(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
