package handler

import (
	appsettlement "github.com/codledger/backend/internal/application/settlement"
	"github.com/gin-gonic/gin"
)

// SettlementHandler serves settlement endpoints
type SettlementHandler struct {
	BaseHandler
	service *appsettlement.Service
}

// NewSettlementHandler creates a SettlementHandler
func NewSettlementHandler(service *appsettlement.Service) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// RegisterRoutes registers settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	settlements := rg.Group("/settlements")
	{
		settlements.POST("/from-session/:session_id", h.ProcessSession)
		settlements.POST("/reconcile", h.Reconcile)
		settlements.GET("", h.List)
		settlements.GET("/:id", h.Get)
		settlements.GET("/code/:code", h.GetByCode)
		settlements.POST("/:id/confirm-discrepancy", h.ConfirmDiscrepancy)
		settlements.POST("/:id/payment", h.RecordPayment)
	}
}

// ProcessSession settles an imported dispatch session
func (h *SettlementHandler) ProcessSession(c *gin.Context) {
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
	sessionID, ok := bindUUIDParam(c, "session_id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req appsettlement.ProcessSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.ProcessSession(c.Request.Context(), storeID, userID, sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Reconcile settles a set of orders directly from delivery data
func (h *SettlementHandler) Reconcile(c *gin.Context) {
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

	var req appsettlement.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Reconcile(c.Request.Context(), storeID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List lists settlements with filtering and pagination
func (h *SettlementHandler) List(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	var filter appsettlement.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, total, err := h.service.List(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, resp, total, page, pageSize)
}

// Get retrieves a settlement by id
func (h *SettlementHandler) Get(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid settlement ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), storeID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByCode retrieves a settlement by its document code
func (h *SettlementHandler) GetByCode(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	resp, err := h.service.GetByCode(c.Request.Context(), storeID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ConfirmDiscrepancy acknowledges a cash mismatch on a settlement
func (h *SettlementHandler) ConfirmDiscrepancy(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid settlement ID")
		return
	}

	var req appsettlement.ConfirmDiscrepancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.ConfirmDiscrepancy(c.Request.Context(), storeID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordPayment attaches payment metadata to a completed settlement
func (h *SettlementHandler) RecordPayment(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid settlement ID")
		return
	}

	var req appsettlement.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.RecordPayment(c.Request.Context(), storeID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
