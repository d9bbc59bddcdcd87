package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"odenehouk/internal/domain"
	"odenehouk/internal/models"
	"odenehouk/internal/repository"
	"odenehouk/pkg/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outcome describes what reconciling one event did.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeNoop            Outcome = "noop"
	OutcomeOrderNotFound   Outcome = "order_not_found"
	OutcomePaymentNotFound Outcome = "payment_not_found"
	OutcomeAmountMismatch  Outcome = "amount_mismatch"
	OutcomeStateConflict   Outcome = "state_conflict"
	OutcomeIgnored         Outcome = "ignored"
)

type ReconcileResult struct {
	EventID       string
	Kind          payment.Kind
	Outcome       Outcome
	OrderID       uint
	AccessGranted bool
	// Warning is a *NotFoundWarning, *AmountMismatchWarning or
	// *StateConflictWarning when the event was recorded without effect.
	Warning error
}

// OrderEvent is the outbox payload for order lifecycle events.
type OrderEvent struct {
	OrderID     uint   `json:"order_id"`
	OrderUUID   string `json:"order_uuid"`
	UserID      uint   `json:"user_id"`
	ProductID   uint   `json:"product_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	EventID     string `json:"event_id,omitempty"`
}

// Reconciler applies verified payment events to orders, payments and access
// grants. Each event is handled in one transaction together with its
// idempotency record, so an event either takes full effect once or not at all.
type Reconciler struct {
	db            *gorm.DB
	orders        *repository.OrderRepository
	payments      *repository.PaymentRepository
	products      *repository.ProductRepository
	access        *repository.AccessRepository
	subscriptions *repository.SubscriptionRepository
	events        *repository.WebhookEventRepository
	outbox        *repository.OutboxRepository
	now           func() time.Time
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{
		db:            db,
		orders:        repository.NewOrderRepository(db),
		payments:      repository.NewPaymentRepository(db),
		products:      repository.NewProductRepository(db),
		access:        repository.NewAccessRepository(db),
		subscriptions: repository.NewSubscriptionRepository(db),
		events:        repository.NewWebhookEventRepository(db),
		outbox:        repository.NewOutboxRepository(db),
		now:           time.Now,
	}
}

// txRepos binds every repository to one transaction.
type txRepos struct {
	tx            *gorm.DB
	orders        *repository.OrderRepository
	payments      *repository.PaymentRepository
	products      *repository.ProductRepository
	access        *repository.AccessRepository
	subscriptions *repository.SubscriptionRepository
	events        *repository.WebhookEventRepository
	outbox        *repository.OutboxRepository
}

func (r *Reconciler) bind(tx *gorm.DB) *txRepos {
	return &txRepos{
		tx:            tx,
		orders:        r.orders.WithTx(tx),
		payments:      r.payments.WithTx(tx),
		products:      r.products.WithTx(tx),
		access:        r.access.WithTx(tx),
		subscriptions: r.subscriptions.WithTx(tx),
		events:        r.events.WithTx(tx),
		outbox:        r.outbox.WithTx(tx),
	}
}

// Reconcile applies evt. A nil error means the event is durably recorded,
// possibly with a warning on the result. ErrDuplicateEvent means a concurrent
// delivery won. Any other error leaves no trace and the event may be retried.
func (r *Reconciler) Reconcile(ctx context.Context, evt *payment.Event) (*ReconcileResult, error) {
	res := &ReconcileResult{EventID: evt.ID, Kind: evt.Kind}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		*res = ReconcileResult{EventID: evt.ID, Kind: evt.Kind}
		repos := r.bind(tx)

		done, err := repos.events.AlreadyProcessed(evt.ID)
		if err != nil {
			return storeErr("lookup event", err)
		}
		if done {
			res.Outcome = OutcomeDuplicate
			return nil
		}

		switch evt.Kind {
		case payment.KindPaymentConfirmed:
			err = r.confirm(repos, evt, res)
		case payment.KindPaymentRefunded:
			err = r.refund(repos, evt, res)
		case payment.KindPaymentDeclined:
			err = r.decline(repos, evt, res)
		case payment.KindPaymentFailed:
			err = r.fail(repos, evt, res)
		default:
			res.Outcome = OutcomeIgnored
		}
		if err != nil {
			return err
		}

		if err := repos.events.MarkProcessed(evt.ID, evt.Type); err != nil {
			if errors.Is(err, repository.ErrEventRecorded) {
				return ErrDuplicateEvent
			}
			return storeErr("mark processed", err)
		}
		return nil
	})
	if errors.Is(err, ErrDuplicateEvent) {
		res.Outcome = OutcomeDuplicate
		res.Warning = nil
		return res, err
	}
	if err != nil {
		var se *StoreError
		if !errors.As(err, &se) {
			err = storeErr("reconcile", err)
		}
		log.Printf("[reconcile] event %s (%s) rolled back: %v", evt.ID, evt.Type, err)
		return nil, err
	}
	if res.Warning != nil {
		log.Printf("[reconcile] event %s recorded without effect: %v", evt.ID, res.Warning)
	}
	return res, nil
}

func (r *Reconciler) confirm(repos *txRepos, evt *payment.Event, res *ReconcileResult) error {
	d := evt.Data
	order, err := repos.orders.LockByRef(d.OrderID(), d.OrderUUID())
	if repository.IsNotFound(err) {
		res.Outcome = OutcomeOrderNotFound
		res.Warning = &NotFoundWarning{EventID: evt.ID, Resource: "order", Ref: orderRef(d)}
		return nil
	}
	if err != nil {
		return storeErr("lock order", err)
	}
	res.OrderID = order.ID

	if d.HasAmount && (d.AmountCents != order.TotalAmountCents || (d.Currency != "" && d.Currency != order.Currency)) {
		res.Outcome = OutcomeAmountMismatch
		res.Warning = &AmountMismatchWarning{
			EventID:          evt.ID,
			OrderID:          order.ID,
			ExpectedCents:    order.TotalAmountCents,
			ExpectedCurrency: order.Currency,
			GotCents:         d.AmountCents,
			GotCurrency:      d.Currency,
		}
		return nil
	}

	switch order.PaymentStatus {
	case domain.OrderPending:
	case domain.OrderPaid:
		// redelivery under a new event id; the grant is idempotent
		res.Outcome = OutcomeNoop
		granted, err := r.grant(repos, order, d.ProductID())
		res.AccessGranted = granted
		return err
	default:
		res.Outcome = OutcomeStateConflict
		res.Warning = &StateConflictWarning{EventID: evt.ID, OrderID: order.ID, Status: order.PaymentStatus}
		return nil
	}

	if err := repos.orders.UpdateStatus(order, domain.OrderPaid, d.TransactionRef); err != nil {
		return storeErr("update order", err)
	}
	if err := r.recordSuccess(repos, order, d.TransactionRef); err != nil {
		return err
	}
	granted, err := r.grant(repos, order, d.ProductID())
	if err != nil {
		return err
	}
	res.AccessGranted = granted
	res.Outcome = OutcomeApplied

	return r.stage(repos, domain.OutboxOrderPaid, order, d.ProductID(), evt.ID)
}

// recordSuccess promotes the initiated attempt for ref, or records a new
// succeeded payment when the order was paid through a hosted checkout or the
// recorded attempt was declined before the buyer retried.
func (r *Reconciler) recordSuccess(repos *txRepos, order *models.Order, ref string) error {
	attempt, err := repos.payments.FindAttempt(order.ID, ref)
	switch {
	case err == nil:
		if attempt.Status == domain.PaymentSucceeded {
			return nil
		}
		if domain.CanTransitionPayment(attempt.Status, domain.PaymentSucceeded) {
			if err := repos.payments.UpdateStatus(attempt, domain.PaymentSucceeded); err != nil {
				return storeErr("update payment", err)
			}
			return nil
		}
	case !repository.IsNotFound(err):
		return storeErr("find payment", err)
	}

	p := &models.Payment{
		OrderID:               order.ID,
		Provider:              order.PaymentProvider,
		ProviderTransactionID: ref,
		AmountCents:           order.TotalAmountCents,
		Currency:              order.Currency,
		Status:                domain.PaymentSucceeded,
	}
	if err := repos.payments.Create(p); err != nil {
		return storeErr("insert payment", err)
	}
	return nil
}

// grant entitles the order's buyer to productID. Subscription products also
// get a subscription row and a grant that expires with it.
func (r *Reconciler) grant(repos *txRepos, order *models.Order, productID uint) (bool, error) {
	if productID == 0 {
		return false, nil
	}

	var expiresAt *time.Time
	product, err := repos.products.GetByID(productID)
	switch {
	case err == nil && product.IsSubscription():
		end, err := r.ensureSubscription(repos, order, product)
		if err != nil {
			return false, err
		}
		expiresAt = end
	case err != nil && !repository.IsNotFound(err):
		return false, storeErr("load product", err)
	}

	created, err := repos.access.Grant(order.UserID, productID, order.ID, expiresAt)
	if err != nil {
		return false, storeErr("grant access", err)
	}
	return created, nil
}

func (r *Reconciler) ensureSubscription(repos *txRepos, order *models.Order, product *models.Product) (*time.Time, error) {
	existing, err := repos.subscriptions.GetByOrderID(order.ID)
	if err == nil {
		return existing.EndsAt, nil
	}
	if !repository.IsNotFound(err) {
		return nil, storeErr("load subscription", err)
	}
	start := r.now()
	end := product.SubscriptionEnd(start)
	sub := &models.Subscription{
		UUID:         uuid.NewString(),
		UserID:       order.UserID,
		ProductID:    product.ID,
		OrderID:      order.ID,
		Status:       domain.SubscriptionActive,
		BillingCycle: product.BillingCycle,
		StartedAt:    start,
		EndsAt:       &end,
	}
	if err := repos.subscriptions.Create(sub); err != nil {
		return nil, storeErr("create subscription", err)
	}
	return &end, nil
}

func (r *Reconciler) refund(repos *txRepos, evt *payment.Event, res *ReconcileResult) error {
	ref := evt.Data.TransactionRef
	p, err := repos.payments.GetByProviderTransactionID(ref)
	if repository.IsNotFound(err) {
		res.Outcome = OutcomePaymentNotFound
		res.Warning = &NotFoundWarning{EventID: evt.ID, Resource: "payment", Ref: ref}
		return nil
	}
	if err != nil {
		return storeErr("find payment", err)
	}

	order, applied, err := r.applyRefund(repos, p.ID)
	if err != nil {
		return err
	}
	res.OrderID = order.ID
	if !applied {
		log.Printf("[reconcile] event %s: order %d is %s, refund not applied", evt.ID, order.ID, order.PaymentStatus)
		res.Outcome = OutcomeNoop
		return nil
	}
	res.Outcome = OutcomeApplied
	return r.stage(repos, domain.OutboxOrderRefunded, order, 0, evt.ID)
}

// applyRefund locks the payment's order and then the payment, and moves both
// to refunded where the state machine allows it. applied reports whether the
// order changed.
func (r *Reconciler) applyRefund(repos *txRepos, paymentID uint) (*models.Order, bool, error) {
	p, err := repos.payments.GetByID(paymentID)
	if repository.IsNotFound(err) {
		return nil, false, err
	}
	if err != nil {
		return nil, false, storeErr("load payment", err)
	}
	order, err := repos.orders.LockByID(p.OrderID)
	if err != nil {
		return nil, false, storeErr("lock order", err)
	}
	p, err = repos.payments.LockByID(paymentID)
	if err != nil {
		return nil, false, storeErr("lock payment", err)
	}

	if domain.CanTransitionPayment(p.Status, domain.PaymentRefunded) {
		if err := repos.payments.UpdateStatus(p, domain.PaymentRefunded); err != nil {
			return nil, false, storeErr("update payment", err)
		}
	}
	if !domain.CanTransitionOrder(order.PaymentStatus, domain.OrderRefunded) {
		return order, false, nil
	}
	if err := repos.orders.UpdateStatus(order, domain.OrderRefunded, ""); err != nil {
		return nil, false, storeErr("update order", err)
	}
	return order, true, nil
}

// MarkRefunded applies the refund transition for a payment refunded through
// the API rather than announced by a webhook.
func (r *Reconciler) MarkRefunded(ctx context.Context, paymentID uint) (bool, error) {
	var applied bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := r.bind(tx)
		order, ok, err := r.applyRefund(repos, paymentID)
		if err != nil {
			return err
		}
		applied = ok
		if !ok {
			return nil
		}
		return r.stage(repos, domain.OutboxOrderRefunded, order, 0, "")
	})
	return applied, err
}

// lockEventOrder locks the order named by the event metadata, falling back to
// the order of the payment carrying the event's transaction reference.
func (r *Reconciler) lockEventOrder(repos *txRepos, evt *payment.Event, res *ReconcileResult) (*models.Order, error) {
	d := evt.Data
	order, err := repos.orders.LockByRef(d.OrderID(), d.OrderUUID())
	if repository.IsNotFound(err) && d.TransactionRef != "" {
		var p *models.Payment
		p, err = repos.payments.GetByProviderTransactionID(d.TransactionRef)
		if err == nil {
			order, err = repos.orders.LockByID(p.OrderID)
		}
	}
	if repository.IsNotFound(err) {
		res.Outcome = OutcomeOrderNotFound
		res.Warning = &NotFoundWarning{EventID: evt.ID, Resource: "order", Ref: orderRef(d)}
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("lock order", err)
	}
	res.OrderID = order.ID
	return order, nil
}

// decline marks the declined attempt failed. The order stays pending so a
// retry against the same intent can still confirm it.
func (r *Reconciler) decline(repos *txRepos, evt *payment.Event, res *ReconcileResult) error {
	order, err := r.lockEventOrder(repos, evt, res)
	if order == nil || err != nil {
		return err
	}

	res.Outcome = OutcomeNoop
	attempt, err := repos.payments.FindAttempt(order.ID, evt.Data.TransactionRef)
	switch {
	case repository.IsNotFound(err):
		return nil
	case err != nil:
		return storeErr("find payment", err)
	}
	if !domain.CanTransitionPayment(attempt.Status, domain.PaymentFailed) {
		return nil
	}
	if err := repos.payments.UpdateStatus(attempt, domain.PaymentFailed); err != nil {
		return storeErr("update payment", err)
	}
	res.Outcome = OutcomeApplied
	return nil
}

// fail is the terminal transition for an abandoned checkout.
func (r *Reconciler) fail(repos *txRepos, evt *payment.Event, res *ReconcileResult) error {
	d := evt.Data
	order, err := r.lockEventOrder(repos, evt, res)
	if order == nil || err != nil {
		return err
	}

	if !domain.CanTransitionOrder(order.PaymentStatus, domain.OrderFailed) {
		log.Printf("[reconcile] event %s: order %d is %s, ignoring failure", evt.ID, order.ID, order.PaymentStatus)
		res.Outcome = OutcomeNoop
		return nil
	}
	if err := repos.orders.UpdateStatus(order, domain.OrderFailed, ""); err != nil {
		return storeErr("update order", err)
	}
	attempt, err := repos.payments.FindAttempt(order.ID, d.TransactionRef)
	switch {
	case err == nil:
		if domain.CanTransitionPayment(attempt.Status, domain.PaymentFailed) {
			if err := repos.payments.UpdateStatus(attempt, domain.PaymentFailed); err != nil {
				return storeErr("update payment", err)
			}
		}
	case !repository.IsNotFound(err):
		return storeErr("find payment", err)
	}
	res.Outcome = OutcomeApplied
	return r.stage(repos, domain.OutboxOrderFailed, order, 0, evt.ID)
}

func (r *Reconciler) stage(repos *txRepos, eventType string, order *models.Order, productID uint, eventID string) error {
	_, err := repos.outbox.Add(eventType, order.UUID, OrderEvent{
		OrderID:     order.ID,
		OrderUUID:   order.UUID,
		UserID:      order.UserID,
		ProductID:   productID,
		AmountCents: order.TotalAmountCents,
		Currency:    order.Currency,
		Status:      order.PaymentStatus,
		EventID:     eventID,
	})
	if err != nil {
		return storeErr("stage outbox event", err)
	}
	return nil
}

func orderRef(d payment.EventData) string {
	if id := d.OrderID(); id != 0 {
		return strconv.FormatUint(uint64(id), 10)
	}
	return d.OrderUUID()
}
