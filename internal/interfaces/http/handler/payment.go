package handler

import (
	appledger "github.com/codledger/backend/internal/application/ledger"
	"github.com/codledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the caller-chosen key that makes payment
// registration safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler serves carrier payment endpoints
type PaymentHandler struct {
	BaseHandler
	service *appledger.PaymentService
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(service *appledger.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Register)
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
	}
}

// Register records a money transfer between store and carrier
func (h *PaymentHandler) Register(c *gin.Context) {
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

	var req appledger.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	resp, err := h.service.RegisterPayment(c.Request.Context(), storeID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List lists payments, optionally narrowed to one carrier
func (h *PaymentHandler) List(c *gin.Context) {
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

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BindingError(c, err)
		return
	}
	list.Normalize()

	resp, total, err := h.service.ListPayments(c.Request.Context(), storeID, carrierID, list.Page, list.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp, total, list.Page, list.PageSize)
}

// Get retrieves a payment by id
func (h *PaymentHandler) Get(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	resp, err := h.service.GetPayment(c.Request.Context(), storeID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
