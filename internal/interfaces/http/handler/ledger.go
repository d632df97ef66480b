package handler

import (
	appledger "github.com/codledger/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler serves carrier account queries and ledger maintenance
type LedgerHandler struct {
	BaseHandler
	service *appledger.Service
}

// NewLedgerHandler creates a LedgerHandler
func NewLedgerHandler(service *appledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	{
		ledger.GET("/balances", h.Balances)
		ledger.GET("/carriers/:id/statement", h.Statement)
		ledger.GET("/carriers/:id/unsettled", h.Unsettled)
		ledger.POST("/carriers/:id/adjustments", h.CreateAdjustment)
		ledger.GET("/health", h.Health)
		ledger.POST("/backfill", h.Backfill)
	}
}

// Balances returns the replayed balance for every carrier with movements
func (h *LedgerHandler) Balances(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	resp, err := h.service.Balances(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Statement returns one carrier's movement history with its balance
func (h *LedgerHandler) Statement(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	carrierID, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid carrier ID")
		return
	}

	var filter appledger.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Statement(c.Request.Context(), storeID, carrierID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Unsettled lists a carrier's open receivable movements
func (h *LedgerHandler) Unsettled(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	carrierID, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid carrier ID")
		return
	}

	resp, err := h.service.Unsettled(c.Request.Context(), storeID, carrierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateAdjustment appends a manual correction to a carrier's ledger
func (h *LedgerHandler) CreateAdjustment(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identification required")
		return
	}
	carrierID, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid carrier ID")
		return
	}

	var req appledger.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.CreateAdjustment(c.Request.Context(), storeID, userID, carrierID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Health replays carrier ledgers against settlement history
func (h *LedgerHandler) Health(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	var carrierID *uuid.UUID
	if raw := c.Query("carrier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid carrier_id")
			return
		}
		carrierID = &id
	}

	resp, err := h.service.Health(c.Request.Context(), storeID, carrierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Backfill repairs missing or duplicated ledger movements
func (h *LedgerHandler) Backfill(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identification required")
		return
	}

	var req appledger.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Backfill(c.Request.Context(), storeID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
