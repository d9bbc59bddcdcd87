package handler

import (
	"net/http"
	"testing"

	"odenehouk/internal/domain"
	"odenehouk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func listingRouter(db *gorm.DB, userID uint, role string) *gin.Engine {
	orders := NewOrderHandler(repository.NewOrderRepository(db))
	access := NewAccessHandler(repository.NewAccessRepository(db))
	subs := NewSubscriptionHandler(repository.NewSubscriptionRepository(db))

	r := gin.New()
	r.Use(as(userID, role))
	r.GET("/api/orders", orders.List)
	r.GET("/api/access", access.List)
	r.GET("/api/access/products/:id", access.Check)
	r.GET("/api/subscriptions", subs.List)
	return r
}

func TestListings_ScopedToCaller(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 3)
	seedUser(t, db, 4)
	seedOrder(t, db, 1, 3, 1900)
	seedOrder(t, db, 2, 3, 1900)
	seedOrder(t, db, 3, 4, 1900)

	w := doJSON(listingRouter(db, 3, domain.RoleCustomer), http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["rows"], 2)
	assert.EqualValues(t, 50, body["limit"])

	w = doJSON(listingRouter(db, 1, domain.RoleAdmin), http.MethodGet, "/api/orders?limit=500&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["rows"], 2)
	assert.EqualValues(t, 100, body["limit"])
	assert.EqualValues(t, 1, body["offset"])
}

func TestAccessCheck(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 3)
	seedProduct(t, db, 7, 1900)
	_, err := repository.NewAccessRepository(db).Grant(3, 7, 1, nil)
	require.NoError(t, err)

	r := listingRouter(db, 3, domain.RoleCustomer)
	w := doJSON(r, http.MethodGet, "/api/access/products/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["has_access"])

	w = doJSON(r, http.MethodGet, "/api/access/products/8", nil)
	assert.Equal(t, false, decode(t, w)["has_access"])

	w = doJSON(r, http.MethodGet, "/api/access/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/access", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["rows"], 1)

	w = doJSON(r, http.MethodGet, "/api/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["rows"])
}

func TestHealth(t *testing.T) {
	db := newTestDB(t)
	h := NewHealthHandler(db)
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/api/health", h.Health)
	r.GET("/api/_startup_check", h.StartupCheck)

	assert.Equal(t, "Odenehouk API Root", decode(t, doJSON(r, http.MethodGet, "/", nil))["message"])
	assert.Equal(t, "ok", decode(t, doJSON(r, http.MethodGet, "/api/health", nil))["status"])
	assert.Equal(t, true, decode(t, doJSON(r, http.MethodGet, "/api/_startup_check", nil))["ok"])
}
