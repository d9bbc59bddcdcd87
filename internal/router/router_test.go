package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"odenehouk/config"
	"odenehouk/internal/auth"
	"odenehouk/internal/database"
	"odenehouk/internal/security"
	"odenehouk/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
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

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test", FrontendURL: "http://shop.test"},
		JWT:    config.JWTConfig{AccessSecret: "secret", AccessExpiry: 15 * time.Minute, RefreshExpiry: time.Hour, Issuer: "test"},
		Payment: config.PaymentConfig{
			WebhookSecret:     "whsec_test",
			WebhookTolerance:  5 * time.Minute,
			AllowedCurrencies: []string{"USD"},
		},
		RateLimit: config.RateLimitConfig{
			Store:        "memory",
			GeneralLimit: 200, GeneralWindow: time.Minute,
			AuthLimit: 20, AuthWindow: time.Minute,
			StrictLimit: 5, StrictWindow: time.Minute,
		},
	}
	return Setup(cfg, db, Deps{
		Provider: &payment.StubProvider{},
		Attempts: security.NewMemoryTracker(security.Policy{Threshold: 6, Window: time.Minute}),
	})
}

func send(r http.Handler, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	r := testEngine(t)

	w := send(r, http.MethodPost, "/api/auth/register", gin.H{"name": "Ada", "email": "ada@example.com", "password": "correct horse"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = send(r, http.MethodPost, "/api/auth/login", gin.H{"email": "ada@example.com", "password": "correct horse"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	var refresh *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == auth.RefreshCookie {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)
	assert.Equal(t, auth.RefreshCookiePath, refresh.Path)
	assert.True(t, refresh.HttpOnly)

	bearer := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+login.AccessToken) }
	w = send(r, http.MethodGet, "/api/auth/me", nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")

	w = send(r, http.MethodPost, "/api/auth/refresh", nil, func(req *http.Request) { req.AddCookie(refresh) })
	require.Equal(t, http.StatusOK, w.Code)

	// The rotated token is spent.
	w = send(r, http.MethodPost, "/api/auth/refresh", nil, func(req *http.Request) { req.AddCookie(refresh) })
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(r, http.MethodGet, "/api/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = send(r, http.MethodGet, "/api/admin/dashboard", nil, bearer)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublicRoutes(t *testing.T) {
	r := testEngine(t)

	w := send(r, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = send(r, http.MethodGet, "/api/products", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodPost, "/api/webhooks/stripe", gin.H{"id": "evt_1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStrictLimiterOnCheckout(t *testing.T) {
	r := testEngine(t)
	token, err := auth.GenerateAccessToken(&config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Minute, Issuer: "test"}, 3, "user-3", "customer")
	require.NoError(t, err)
	bearer := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }

	var last int
	for i := 0; i < 6; i++ {
		last = send(r, http.MethodPost, "/api/checkout/create-session", gin.H{"productId": 1}, bearer).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
