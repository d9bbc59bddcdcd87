package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"odenehouk/internal/database"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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

func seedUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		ID:           id,
		UUID:         fmt.Sprintf("user-%d", id),
		Name:         "Buyer",
		Email:        fmt.Sprintf("user%d@example.com", id),
		PasswordHash: "x",
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}).Error)
}

func seedProduct(t *testing.T, db *gorm.DB, id uint, cents int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.Product{
		ID:         id,
		UUID:       fmt.Sprintf("product-%d", id),
		Title:      "Product",
		Slug:       fmt.Sprintf("product-%d", id),
		Type:       domain.ProductTypeDigital,
		PriceCents: cents,
		Currency:   "USD",
		IsActive:   true,
	}).Error)
}

func seedOrder(t *testing.T, db *gorm.DB, id, userID uint, cents int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.Order{
		ID:               id,
		UUID:             fmt.Sprintf("order-%d", id),
		UserID:           userID,
		TotalAmountCents: cents,
		Currency:         "USD",
		PaymentStatus:    domain.OrderPending,
		PaymentProvider:  "stripe",
	}).Error)
}

// as stands in for AuthRequired.
func as(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
