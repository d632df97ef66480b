package handler

import (
	appcarrier "github.com/codledger/backend/internal/application/carrier"
	"github.com/gin-gonic/gin"
)

// CarrierHandler serves carrier administration endpoints
type CarrierHandler struct {
	BaseHandler
	service *appcarrier.Service
}

// NewCarrierHandler creates a CarrierHandler
func NewCarrierHandler(service *appcarrier.Service) *CarrierHandler {
	return &CarrierHandler{service: service}
}

// RegisterRoutes registers carrier routes
func (h *CarrierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	carriers := rg.Group("/carriers")
	{
		carriers.POST("", h.Create)
		carriers.GET("", h.List)
		carriers.GET("/:id", h.Get)
		carriers.PUT("/:id/config", h.UpdateConfig)
		carriers.POST("/:id/deactivate", h.Deactivate)
	}
}

// Create registers a new carrier
func (h *CarrierHandler) Create(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	var req appcarrier.CreateCarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), storeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List lists the store's carriers
func (h *CarrierHandler) List(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	activeOnly := c.Query("active") == "true"
	resp, err := h.service.List(c.Request.Context(), storeID, activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get retrieves one carrier
func (h *CarrierHandler) Get(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid carrier ID")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), storeID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateConfig replaces a carrier's settlement policy
func (h *CarrierHandler) UpdateConfig(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid carrier ID")
		return
	}

	var req appcarrier.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.UpdateConfig(c.Request.Context(), storeID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deactivate disables a carrier for new dispatch sessions
func (h *CarrierHandler) Deactivate(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid carrier ID")
		return
	}

	resp, err := h.service.Deactivate(c.Request.Context(), storeID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
