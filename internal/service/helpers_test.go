package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"odenehouk/internal/database"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"
	"odenehouk/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	u := &models.User{
		ID:           id,
		UUID:         fmt.Sprintf("user-%d", id),
		Name:         "Buyer",
		Email:        fmt.Sprintf("user%d@example.com", id),
		PasswordHash: "x",
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, id uint, cents int64, typ, cycle string) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:           id,
		UUID:         fmt.Sprintf("product-%d", id),
		Title:        "Product",
		Slug:         fmt.Sprintf("product-%d", id),
		Type:         typ,
		PriceCents:   cents,
		Currency:     "USD",
		BillingCycle: cycle,
		IsActive:     true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, id, userID uint, cents int64) *models.Order {
	t.Helper()
	o := &models.Order{
		ID:               id,
		UUID:             fmt.Sprintf("order-%d", id),
		UserID:           userID,
		TotalAmountCents: cents,
		Currency:         "USD",
		PaymentStatus:    domain.OrderPending,
		PaymentProvider:  "stripe",
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func seedPayment(t *testing.T, db *gorm.DB, orderID uint, ref, status string, cents int64) *models.Payment {
	t.Helper()
	p := &models.Payment{
		OrderID:               orderID,
		Provider:              "stripe",
		ProviderTransactionID: ref,
		AmountCents:           cents,
		Currency:              "USD",
		Status:                status,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// event builds a parsed provider event from a data object.
func event(t *testing.T, id, typ string, object map[string]any) *payment.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":   id,
		"type": typ,
		"data": map[string]any{"object": object},
	})
	require.NoError(t, err)
	evt, err := payment.ParseEvent(raw)
	require.NoError(t, err)
	return evt
}

func checkoutCompleted(t *testing.T, id string, orderID, productID, userID uint, cents int64, ref string) *payment.Event {
	return event(t, id, "checkout.session.completed", map[string]any{
		"id":             "cs_" + id,
		"object":         "checkout.session",
		"payment_intent": ref,
		"amount_total":   cents,
		"currency":       "usd",
		"metadata": map[string]string{
			"order_id":   fmt.Sprint(orderID),
			"order_uuid": fmt.Sprintf("order-%d", orderID),
			"product_id": fmt.Sprint(productID),
			"user_id":    fmt.Sprint(userID),
		},
	})
}

func chargeRefunded(t *testing.T, id, ref string) *payment.Event {
	return event(t, id, "charge.refunded", map[string]any{
		"id":             "ch_" + id,
		"object":         "charge",
		"payment_intent": ref,
		"currency":       "usd",
	})
}

func count(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) *models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, db.First(&o, id).Error)
	return &o
}
