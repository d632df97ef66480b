package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	appdispatch "github.com/codledger/backend/internal/application/dispatch"
	"github.com/codledger/backend/internal/infrastructure/importer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxResultsFileSize bounds uploaded delivery result files
const maxResultsFileSize = 5 << 20 // 5MB

// DispatchHandler serves dispatch session endpoints
type DispatchHandler struct {
	BaseHandler
	service *appdispatch.Service
	loc     *time.Location
}

// NewDispatchHandler creates a DispatchHandler. loc is the store-local
// timezone reconciliation groups are bucketed in.
func NewDispatchHandler(service *appdispatch.Service, loc *time.Location) *DispatchHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DispatchHandler{service: service, loc: loc}
}

// RegisterRoutes registers dispatch routes
func (h *DispatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	dispatch := rg.Group("/dispatch")
	{
		dispatch.GET("/eligible-orders", h.EligibleOrders)
		dispatch.GET("/pending-reconciliation", h.PendingReconciliation)

		sessions := dispatch.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("", h.ListSessions)
			sessions.GET("/:id", h.GetSession)
			sessions.GET("/code/:code", h.GetSessionByCode)
			sessions.POST("/:id/results", h.ImportResults)
			sessions.POST("/:id/results/csv", h.UploadResults)
			sessions.POST("/:id/cancel", h.CancelSession)
			sessions.GET("/:id/export", h.ExportSession)
		}
	}
}

// EligibleOrders lists orders that can be handed to a carrier
func (h *DispatchHandler) EligibleOrders(c *gin.Context) {
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

	resp, err := h.service.EligibleOrders(c.Request.Context(), storeID, carrierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PendingReconciliation groups unsettled orders by carrier and delivery date
func (h *DispatchHandler) PendingReconciliation(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	resp, err := h.service.PendingReconciliation(c.Request.Context(), storeID, h.loc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateSession opens a dispatch session over a set of orders
func (h *DispatchHandler) CreateSession(c *gin.Context) {
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

	var req appdispatch.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.CreateSession(c.Request.Context(), storeID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListSessions lists sessions with optional status filtering
func (h *DispatchHandler) ListSessions(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	var filter appdispatch.SessionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, total, err := h.service.ListSessions(c.Request.Context(), storeID, filter)
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

// GetSession retrieves a session by id
func (h *DispatchHandler) GetSession(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	resp, err := h.service.GetSession(c.Request.Context(), storeID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetSessionByCode retrieves a session by its document code
func (h *DispatchHandler) GetSessionByCode(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	resp, err := h.service.GetSessionByCode(c.Request.Context(), storeID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ImportResults records delivery outcomes submitted as JSON
func (h *DispatchHandler) ImportResults(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req appdispatch.ImportResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	report, err := h.service.ImportResults(c.Request.Context(), storeID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// UploadResults records delivery outcomes from an uploaded CSV file. Rows the
// parser rejects are reported alongside rows the import itself skipped.
func (h *DispatchHandler) UploadResults(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A results file is required (multipart field 'file')")
		return
	}
	if fileHeader.Size > maxResultsFileSize {
		h.BadRequest(c, fmt.Sprintf("File exceeds the %dMB limit", maxResultsFileSize>>20))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResultsFileSize+1))
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}

	parsed, err := importer.ParseResultsFromBytes(data)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.service.ImportResults(c.Request.Context(), storeID, id, appdispatch.ImportResultsRequest{
		Results: parsed.Rows,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	// rows the parser rejected never reached the import; surface them too
	report.Skipped = append(parsed.Skipped, report.Skipped...)
	h.Success(c, report)
}

// CancelSession abandons a session and releases its orders
func (h *DispatchHandler) CancelSession(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	resp, err := h.service.CancelSession(c.Request.Context(), storeID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ExportSession streams the session sheet as a download
func (h *DispatchHandler) ExportSession(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}
	id, ok := bindUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	file, err := h.service.ExportSession(c.Request.Context(), storeID, id, c.Query("format"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	if file.ArchiveURL != "" {
		c.Header("X-Archive-URL", file.ArchiveURL)
	}
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
