package handler

import (
	"errors"
	"fmt"
	"net/http"

	billingapp "github.com/freelancedesk/backend/internal/application/billing"
	"github.com/freelancedesk/backend/internal/infrastructure/printing"
	"github.com/freelancedesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice CRUD and PDF export endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
	exportService  *billingapp.ExportService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService, exportService *billingapp.ExportService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		exportService:  exportService,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.POST("/export", h.BulkExport)
		invoices.POST("/combined-pdf", h.CombinedPDF)
		invoices.GET("/:id", h.Get)
		invoices.PUT("/:id", h.Update)
		invoices.PUT("/:id/status", h.UpdateStatus)
		invoices.DELETE("/:id", h.Delete)
		invoices.GET("/:id/pdf", h.DownloadPDF)
	}
}

// handleBillingError maps collected validation violations to a 422 with
// per-violation details; everything else goes through HandleError.
func (h *InvoiceHandler) handleBillingError(c *gin.Context, err error) {
	var valErr *billingapp.ValidationError
	if errors.As(err, &valErr) {
		details := make([]dto.ValidationDetail, 0, len(valErr.Result.Errors))
		for _, msg := range valErr.Result.Errors {
			details = append(details, dto.ValidationDetail{Message: msg})
		}
		c.JSON(http.StatusUnprocessableEntity, dto.NewValidationErrorResponse(
			"Invoice validation failed",
			getRequestID(c),
			details,
		))
		return
	}

	var renderErr *printing.RenderError
	if errors.As(err, &renderErr) {
		code := dto.NormalizeErrorCode(renderErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, renderErr.Message)
		return
	}

	h.HandleError(c, err)
}

// Create godoc
// @ID createInvoice
// @Summary Create an invoice with an allocated sequential number
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body billing.CreateInvoiceRequest true "Invoice data"
// @Success 201 {object} APIResponse[billing.Invoice]
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.invoiceService.CreateInvoice(c.Request.Context(), userID, req)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	h.Created(c, inv)
}

// List godoc
// @ID listInvoices
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Filter by status"
// @Param project_id query string false "Filter by project"
// @Success 200 {object} APIResponse[[]billing.Invoice]
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID getInvoice
// @Summary Get an invoice by ID
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} APIResponse[billing.Invoice]
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// Update godoc
// @ID updateInvoice
// @Summary Update an invoice's billed-to name
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body billing.UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} APIResponse[billing.Invoice]
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req billingapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.invoiceService.UpdateInvoice(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// UpdateStatus godoc
// @ID updateInvoiceStatus
// @Summary Change an invoice's status
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body billing.UpdateInvoiceStatusRequest true "New status"
// @Success 200 {object} APIResponse[billing.Invoice]
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req billingapp.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.invoiceService.UpdateInvoiceStatus(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// Delete godoc
// @ID deleteInvoice
// @Summary Delete an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DownloadPDF godoc
// @ID downloadInvoicePDF
// @Summary Render a single invoice as PDF
// @Tags invoices
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.exportService.RenderInvoicePDF(c.Request.Context(), userID, id)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	serveAttachment(c, "application/pdf", result.Filename, result.Data)
}

// BulkExport godoc
// @ID exportInvoices
// @Summary Render up to 50 invoices as a ZIP of PDFs
// @Tags invoices
// @Accept json
// @Produce application/zip
// @Security BearerAuth
// @Param request body billing.BulkExportRequest true "Invoice IDs to export"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /invoices/export [post]
func (h *InvoiceHandler) BulkExport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req billingapp.BulkExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.exportService.RenderBulkInvoicePDFs(c.Request.Context(), userID, req)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	if result.DownloadURL != "" {
		c.Header("X-Download-URL", result.DownloadURL)
	}
	serveAttachment(c, "application/zip", result.Filename, result.Data)
}

// CombinedPDF godoc
// @ID renderCombinedPDF
// @Summary Render an ad hoc combined invoice as PDF
// @Tags invoices
// @Accept json
// @Produce application/pdf
// @Security BearerAuth
// @Param request body billing.CombinedInvoiceRequest true "Combined invoice data"
// @Success 200 {file} binary
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /invoices/combined-pdf [post]
func (h *InvoiceHandler) CombinedPDF(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req billingapp.CombinedInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.exportService.RenderCombinedPDF(c.Request.Context(), req)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	serveAttachment(c, "application/pdf", result.Filename, result.Data)
}

// serveAttachment streams binary content with a download filename
func serveAttachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
