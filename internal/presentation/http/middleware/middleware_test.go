package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndTenantMiddleware(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", "fixdesk-api")
	tenantID := uuid.New()

	r := gin.New()
	r.Use(AuthMiddleware(jwtManager), TenantMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := repository.GetTenantID(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})
	r.POST("/void", RequirePermission("pos-reversal"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/whoami", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Token abc"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	token, err := jwtManager.GenerateAccessToken(uuid.New(), tenantID, "cashier@shop.test", []string{"cashier"}, nil, time.Hour)
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	t.Run("tenant reaches request context", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/whoami", auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID.String(), w.Body.String())
	})

	t.Run("permission denied", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/void", auth)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("permission granted", func(t *testing.T) {
		manager, err := jwtManager.GenerateAccessToken(uuid.New(), tenantID, "", []string{"manager"}, []string{"pos-reversal"}, time.Hour)
		require.NoError(t, err)
		w := perform(r, http.MethodPost, "/void", map[string]string{"Authorization": "Bearer " + manager})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", "fixdesk-api")
	r := gin.New()
	r.Use(AuthMiddleware(jwtManager))
	r.POST("/admin", RequireRole("admin", "super-admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cashier, _ := jwtManager.GenerateAccessToken(uuid.New(), uuid.New(), "", []string{"cashier"}, nil, time.Hour)
	admin, _ := jwtManager.GenerateAccessToken(uuid.New(), uuid.New(), "", []string{"admin"}, nil, time.Hour)

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodPost, "/admin", map[string]string{"Authorization": "Bearer " + cashier}).Code)
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodPost, "/admin", map[string]string{"Authorization": "Bearer " + admin}).Code)
}

func TestIdempotencyMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/optional", Idempotency(false), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdempotencyKey(c))
	})
	r.POST("/required", Idempotency(true), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdempotencyKey(c))
	})

	w := perform(r, http.MethodPost, "/optional", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = perform(r, http.MethodPost, "/required", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = perform(r, http.MethodPost, "/required", map[string]string{IdempotencyKeyHeader: "checkout-7f3a"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "checkout-7f3a", w.Body.String())

	w = perform(r, http.MethodPost, "/optional", map[string]string{IdempotencyKeyHeader: strings.Repeat("k", 129)})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = perform(r, http.MethodPost, "/optional", map[string]string{IdempotencyKeyHeader: "has space"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTenantRateLimiter(t *testing.T) {
	rl := NewTenantRateLimiter(context.Background(), RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	tenantA, tenantB := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Tenant") == "b" {
			c.Set("tenant_id", tenantB)
		} else {
			c.Set("tenant_id", tenantA)
		}
	}, rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// a noisy tenant does not throttle another
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", map[string]string{"X-Tenant": "b"}).Code)
}
