package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"
)

type InvoiceHandler struct {
	svc service.InvoiceService
}

func NewInvoiceHandler(svc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	manager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	purchase := router.Group("/api/purchase-invoices")
	{
		purchase.GET("", staff, h.ListPurchaseInvoices)
		purchase.GET("/:id", staff, h.GetPurchaseInvoice)
		purchase.DELETE("/:id", manager, h.DeletePurchaseInvoice)
		purchase.GET("/:id/payments", staff, h.ListVendorPayments)
		purchase.POST("/:id/payments", staff, h.AddVendorPayment)
	}
	router.DELETE("/api/vendor-payments/:id", manager, h.RemoveVendorPayment)

	sales := router.Group("/api/sales-invoices")
	{
		sales.GET("", staff, h.ListSalesInvoices)
		sales.GET("/:id", staff, h.GetSalesInvoice)
		sales.DELETE("/:id", manager, h.DeleteSalesInvoice)
		sales.GET("/:id/payments", staff, h.ListCustomerPayments)
		sales.POST("/:id/payments", staff, h.AddCustomerPayment)
	}
	router.DELETE("/api/customer-payments/:id", manager, h.RemoveCustomerPayment)
}

// @Summary      List purchase invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-invoices [get]
func (h *InvoiceHandler) ListPurchaseInvoices(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListPurchaseInvoices(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get purchase invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-invoices/{id} [get]
func (h *InvoiceHandler) GetPurchaseInvoice(c *gin.Context) {
	doc, err := h.svc.GetPurchaseInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// DeletePurchaseInvoice removes an unpaid invoice and reverses its balance
// effect
// @Summary      Delete purchase invoice
// @Tags         invoices
// @Security     BearerAuth
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/purchase-invoices/{id} [delete]
func (h *InvoiceHandler) DeletePurchaseInvoice(c *gin.Context) {
	if err := h.svc.DeletePurchaseInvoice(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List vendor payments for an invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-invoices/{id}/payments [get]
func (h *InvoiceHandler) ListVendorPayments(c *gin.Context) {
	payments, err := h.svc.ListVendorPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// AddVendorPayment settles part or all of a purchase invoice
// @Summary      Add vendor payment
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Invoice ID"
// @Param        payload  body  service.PaymentRequest  true  "Payment payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/purchase-invoices/{id}/payments [post]
func (h *InvoiceHandler) AddVendorPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	payment, err := h.svc.AddVendorPayment(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// RemoveVendorPayment voids a payment and restores the invoice balance
// @Summary      Remove vendor payment
// @Tags         invoices
// @Security     BearerAuth
// @Param        id  path  string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Router       /api/vendor-payments/{id} [delete]
func (h *InvoiceHandler) RemoveVendorPayment(c *gin.Context) {
	if err := h.svc.RemoveVendorPayment(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": true}))
}

// @Summary      List sales invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/sales-invoices [get]
func (h *InvoiceHandler) ListSalesInvoices(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListSalesInvoices(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get sales invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Router       /api/sales-invoices/{id} [get]
func (h *InvoiceHandler) GetSalesInvoice(c *gin.Context) {
	doc, err := h.svc.GetSalesInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Delete sales invoice
// @Tags         invoices
// @Security     BearerAuth
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/sales-invoices/{id} [delete]
func (h *InvoiceHandler) DeleteSalesInvoice(c *gin.Context) {
	if err := h.svc.DeleteSalesInvoice(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List customer payments for an invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Router       /api/sales-invoices/{id}/payments [get]
func (h *InvoiceHandler) ListCustomerPayments(c *gin.Context) {
	payments, err := h.svc.ListCustomerPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// AddCustomerPayment settles part or all of a sales invoice
// @Summary      Add customer payment
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Invoice ID"
// @Param        payload  body  service.PaymentRequest  true  "Payment payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/sales-invoices/{id}/payments [post]
func (h *InvoiceHandler) AddCustomerPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	payment, err := h.svc.AddCustomerPayment(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// @Summary      Remove customer payment
// @Tags         invoices
// @Security     BearerAuth
// @Param        id  path  string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Router       /api/customer-payments/{id} [delete]
func (h *InvoiceHandler) RemoveCustomerPayment(c *gin.Context) {
	if err := h.svc.RemoveCustomerPayment(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": true}))
}
