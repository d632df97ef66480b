package middleware

import (
	"net/http"
	"strings"

	"github.com/codledger/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Store scope context keys
const (
	StoreIDKey     = "store_id"
	StoreHeaderKey = "X-Store-ID"
)

// StoreScopeConfig holds configuration for the store scope middleware
type StoreScopeConfig struct {
	// HeaderEnabled enables X-Store-ID header extraction, used for
	// development and internal tooling
	HeaderEnabled bool
	// SkipPaths are paths that don't require a store scope
	SkipPaths []string
	// Required determines whether a missing store scope rejects the request
	Required bool
}

// DefaultStoreScopeConfig returns default store scope configuration
func DefaultStoreScopeConfig() StoreScopeConfig {
	return StoreScopeConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:      true,
	}
}

// StoreScope extracts the store every request operates in.
// Extraction order: JWT claims, then the X-Store-ID header.
func StoreScope() gin.HandlerFunc {
	return StoreScopeWithConfig(DefaultStoreScopeConfig())
}

// StoreScopeWithConfig returns store scope middleware with custom configuration
func StoreScopeWithConfig(cfg StoreScopeConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		storeID := GetJWTStoreID(c)
		if storeID == "" && cfg.HeaderEnabled {
			storeID = c.GetHeader(StoreHeaderKey)
		}

		if storeID != "" {
			if _, err := uuid.Parse(storeID); err != nil {
				respondStoreScopeError(c, "Invalid store ID format")
				return
			}
		}
		if storeID == "" && cfg.Required {
			respondStoreScopeError(c, "Store identification required")
			return
		}

		if storeID != "" {
			c.Set(StoreIDKey, storeID)

			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithStoreID(ctx, log, storeID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

func respondStoreScopeError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetStoreID retrieves the store ID from gin.Context
func GetStoreID(c *gin.Context) string {
	if storeID, exists := c.Get(StoreIDKey); exists {
		if sid, ok := storeID.(string); ok {
			return sid
		}
	}
	return ""
}

// GetStoreUUID retrieves the store ID as UUID from gin.Context
func GetStoreUUID(c *gin.Context) (uuid.UUID, error) {
	storeID := GetStoreID(c)
	if storeID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(storeID)
}
