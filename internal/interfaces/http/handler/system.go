package handler

import (
	"net/http"
	"time"

	"github.com/codledger/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
)

// SystemHandler serves health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db      *persistence.Database
	appName string
	env     string
	started time.Time
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(db *persistence.Database, appName, env string) *SystemHandler {
	return &SystemHandler{
		db:      db,
		appName: appName,
		env:     env,
		started: time.Now(),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// HealthStatus is the health endpoint payload
type HealthStatus struct {
	Status   string    `json:"status"`
	App      string    `json:"app"`
	Env      string    `json:"env"`
	Uptime   string    `json:"uptime"`
	Database string    `json:"database"`
	Pool     *PoolInfo `json:"pool,omitempty"`
}

// PoolInfo summarizes the database connection pool
type PoolInfo struct {
	Open   int   `json:"open"`
	InUse  int   `json:"in_use"`
	Idle   int   `json:"idle"`
	Waited int64 `json:"waited"`
}

// Health reports service and database health
func (h *SystemHandler) Health(c *gin.Context) {
	status := HealthStatus{
		Status:   "ok",
		App:      h.appName,
		Env:      h.env,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Database: "up",
	}

	code := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status.Status = "degraded"
			status.Database = "down"
			code = http.StatusServiceUnavailable
		} else if stats, err := h.db.Stats(); err == nil {
			status.Pool = &PoolInfo{
				Open:   stats.OpenConnections,
				InUse:  stats.InUse,
				Idle:   stats.Idle,
				Waited: stats.WaitCount,
			}
		}
	}

	c.JSON(code, status)
}
