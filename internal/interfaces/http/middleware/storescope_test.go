package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreScopeRouter(cfg StoreScopeConfig) (*gin.Engine, *string) {
	var captured string
	router := gin.New()
	router.Use(StoreScopeWithConfig(cfg))
	router.GET("/carriers", func(c *gin.Context) {
		captured = GetStoreID(c)
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, &captured
}

func TestStoreScope(t *testing.T) {
	storeID := uuid.New()

	t.Run("extracts store from header", func(t *testing.T) {
		router, captured := newStoreScopeRouter(DefaultStoreScopeConfig())
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/carriers", nil)
		req.Header.Set(StoreHeaderKey, storeID.String())
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, storeID.String(), *captured)
	})

	t.Run("prefers JWT claim over header", func(t *testing.T) {
		jwtStore := uuid.New()
		var captured string
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(JWTStoreIDKey, jwtStore.String())
		})
		router.Use(StoreScope())
		router.GET("/carriers", func(c *gin.Context) {
			captured = GetStoreID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/carriers", nil)
		req.Header.Set(StoreHeaderKey, storeID.String())
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, jwtStore.String(), captured)
	})

	t.Run("rejects requests without a store", func(t *testing.T) {
		router, _ := newStoreScopeRouter(DefaultStoreScopeConfig())
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/carriers", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Store identification required")
	})

	t.Run("rejects malformed store IDs", func(t *testing.T) {
		router, _ := newStoreScopeRouter(DefaultStoreScopeConfig())
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/carriers", nil)
		req.Header.Set(StoreHeaderKey, "not-a-uuid")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid store ID format")
	})

	t.Run("skips configured paths", func(t *testing.T) {
		router, _ := newStoreScopeRouter(DefaultStoreScopeConfig())
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("optional scope lets requests through", func(t *testing.T) {
		cfg := DefaultStoreScopeConfig()
		cfg.Required = false
		router, captured := newStoreScopeRouter(cfg)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/carriers", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, *captured)
	})
}

func TestGetStoreUUID(t *testing.T) {
	storeID := uuid.New()
	router := gin.New()
	router.Use(StoreScope())
	var got uuid.UUID
	router.GET("/carriers", func(c *gin.Context) {
		var err error
		got, err = GetStoreUUID(c)
		require.NoError(t, err)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/carriers", nil)
	req.Header.Set(StoreHeaderKey, storeID.String())
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storeID, got)
}
