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

type SalesHandler struct {
	svc service.SalesService
}

func NewSalesHandler(svc service.SalesService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

func (h *SalesHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	manager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	quotations := router.Group("/api/sales-quotations")
	{
		quotations.POST("", staff, h.CreateQuotation)
		quotations.GET("", staff, h.ListQuotations)
		quotations.GET("/:id", staff, h.GetQuotation)
		quotations.POST("/:id/transition", staff, h.TransitionQuotation)
		quotations.POST("/:id/convert-to-order", staff, h.ConvertQuotationToOrder)
		quotations.DELETE("/:id", manager, h.DeleteQuotation)
	}

	orders := router.Group("/api/sales-orders")
	{
		orders.GET("", staff, h.ListOrders)
		orders.GET("/:id", staff, h.GetOrder)
		orders.POST("/:id/transition", staff, h.TransitionOrder)
		orders.DELETE("/:id", manager, h.DeleteOrder)
	}

	deliveries := router.Group("/api/deliveries")
	{
		deliveries.POST("", staff, h.CreateDelivery)
		deliveries.GET("", staff, h.ListDeliveries)
		deliveries.GET("/:id", staff, h.GetDelivery)
		deliveries.POST("/:id/transition", staff, h.TransitionDelivery)
		deliveries.POST("/:id/convert-to-invoice", staff, h.ConvertDeliveryToInvoice)
	}

	issues := router.Group("/api/good-issues")
	{
		issues.POST("", staff, h.CreateGoodIssue)
		issues.GET("", staff, h.ListGoodIssues)
		issues.GET("/:id", staff, h.GetGoodIssue)
		issues.POST("/:id/transition", staff, h.TransitionGoodIssue)
	}
}

// @Summary      Create sales quotation
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateSalesQuotationRequest  true  "Quotation payload"
// @Success      201  {object}  response.Response
// @Router       /api/sales-quotations [post]
func (h *SalesHandler) CreateQuotation(c *gin.Context) {
	var req service.CreateSalesQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.CreateQuotation(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      List sales quotations
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/sales-quotations [get]
func (h *SalesHandler) ListQuotations(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListQuotations(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get sales quotation
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Router       /api/sales-quotations/{id} [get]
func (h *SalesHandler) GetQuotation(c *gin.Context) {
	doc, err := h.svc.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Transition sales quotation
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Quotation ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Router       /api/sales-quotations/{id}/transition [post]
func (h *SalesHandler) TransitionQuotation(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionQuotation(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Convert sales quotation to sales order
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                              true  "Quotation ID"
// @Param        payload  body  service.ConvertToSalesOrderRequest  true  "Conversion payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-quotations/{id}/convert-to-order [post]
func (h *SalesHandler) ConvertQuotationToOrder(c *gin.Context) {
	var req service.ConvertToSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.ConvertQuotationToOrder(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      Delete sales quotation
// @Tags         sales
// @Security     BearerAuth
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Router       /api/sales-quotations/{id} [delete]
func (h *SalesHandler) DeleteQuotation(c *gin.Context) {
	if err := h.svc.DeleteQuotation(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List sales orders
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/sales-orders [get]
func (h *SalesHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListOrders(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get sales order
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Router       /api/sales-orders/{id} [get]
func (h *SalesHandler) GetOrder(c *gin.Context) {
	doc, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Transition sales order
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Order ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Router       /api/sales-orders/{id}/transition [post]
func (h *SalesHandler) TransitionOrder(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionOrder(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Delete sales order
// @Tags         sales
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Router       /api/sales-orders/{id} [delete]
func (h *SalesHandler) DeleteOrder(c *gin.Context) {
	if err := h.svc.DeleteOrder(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// CreateDelivery opens a draft delivery against a confirmed sales order
// @Summary      Create delivery
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateDeliveryRequest  true  "Delivery payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/deliveries [post]
func (h *SalesHandler) CreateDelivery(c *gin.Context) {
	var req service.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.CreateDelivery(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      List deliveries
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/deliveries [get]
func (h *SalesHandler) ListDeliveries(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListDeliveries(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get delivery
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Delivery ID"
// @Success      200  {object}  response.Response
// @Router       /api/deliveries/{id} [get]
func (h *SalesHandler) GetDelivery(c *gin.Context) {
	doc, err := h.svc.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// TransitionDelivery confirms or cancels a draft delivery. Confirmation
// issues the stock and updates delivered quantities on the sales order.
// @Summary      Transition delivery
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Delivery ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/deliveries/{id}/transition [post]
func (h *SalesHandler) TransitionDelivery(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionDelivery(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Convert delivery to sales invoice
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Delivery ID"
// @Param        payload  body  service.ConvertToInvoiceRequest  true  "Conversion payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/deliveries/{id}/convert-to-invoice [post]
func (h *SalesHandler) ConvertDeliveryToInvoice(c *gin.Context) {
	var req service.ConvertToInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.ConvertDeliveryToInvoice(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      Create good issue
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateGoodIssueRequest  true  "Good issue payload"
// @Success      201  {object}  response.Response
// @Router       /api/good-issues [post]
func (h *SalesHandler) CreateGoodIssue(c *gin.Context) {
	var req service.CreateGoodIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.CreateGoodIssue(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      List good issues
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/good-issues [get]
func (h *SalesHandler) ListGoodIssues(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListGoodIssues(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get good issue
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Good issue ID"
// @Success      200  {object}  response.Response
// @Router       /api/good-issues/{id} [get]
func (h *SalesHandler) GetGoodIssue(c *gin.Context) {
	doc, err := h.svc.GetGoodIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// TransitionGoodIssue executes or cancels a draft good issue. Execution
// takes the stock out.
// @Summary      Transition good issue
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Good issue ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/good-issues/{id}/transition [post]
func (h *SalesHandler) TransitionGoodIssue(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionGoodIssue(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}
