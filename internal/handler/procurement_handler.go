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

type ProcurementHandler struct {
	svc service.ProcurementService
}

func NewProcurementHandler(svc service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{svc: svc}
}

func (h *ProcurementHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	manager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	requisitions := router.Group("/api/requisitions")
	{
		requisitions.POST("", staff, h.CreateRequisition)
		requisitions.GET("", staff, h.ListRequisitions)
		requisitions.GET("/:id", staff, h.GetRequisition)
		requisitions.PUT("/:id", staff, h.UpdateRequisition)
		requisitions.POST("/:id/transition", staff, h.TransitionRequisition)
		requisitions.POST("/:id/convert-to-rfq", staff, h.ConvertRequisitionToRFQ)
		requisitions.DELETE("/:id", manager, h.DeleteRequisition)
	}

	rfqs := router.Group("/api/rfqs")
	{
		rfqs.GET("", staff, h.ListRFQs)
		rfqs.GET("/:id", staff, h.GetRFQ)
		rfqs.POST("/:id/transition", staff, h.TransitionRFQ)
		rfqs.POST("/:id/convert-to-quotation", staff, h.ConvertRFQToQuotation)
		rfqs.DELETE("/:id", manager, h.DeleteRFQ)
	}

	quotations := router.Group("/api/purchase-quotations")
	{
		quotations.GET("", staff, h.ListQuotations)
		quotations.GET("/:id", staff, h.GetQuotation)
		quotations.POST("/:id/transition", staff, h.TransitionQuotation)
		quotations.POST("/:id/convert-to-order", staff, h.ConvertQuotationToOrder)
		quotations.DELETE("/:id", manager, h.DeleteQuotation)
	}

	orders := router.Group("/api/purchase-orders")
	{
		orders.GET("", staff, h.ListOrders)
		orders.GET("/:id", staff, h.GetOrder)
		orders.POST("/:id/transition", staff, h.TransitionOrder)
		orders.DELETE("/:id", manager, h.DeleteOrder)
	}
}

// CreateRequisition opens a draft purchase requisition
// @Summary      Create requisition
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateRequisitionRequest  true  "Requisition payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/requisitions [post]
func (h *ProcurementHandler) CreateRequisition(c *gin.Context) {
	var req service.CreateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.CreateRequisition(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// ListRequisitions returns paginated requisitions with optional status filter
// @Summary      List requisitions
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/requisitions [get]
func (h *ProcurementHandler) ListRequisitions(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListRequisitions(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// GetRequisition returns one requisition with its lines
// @Summary      Get requisition
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Requisition ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requisitions/{id} [get]
func (h *ProcurementHandler) GetRequisition(c *gin.Context) {
	doc, err := h.svc.GetRequisition(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateRequisition replaces a draft requisition's fields and lines
// @Summary      Update requisition
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                            true  "Requisition ID"
// @Param        payload  body  service.CreateRequisitionRequest  true  "Requisition payload"
// @Success      200  {object}  response.Response
// @Router       /api/requisitions/{id} [put]
func (h *ProcurementHandler) UpdateRequisition(c *gin.Context) {
	var req service.CreateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.UpdateRequisition(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// TransitionRequisition moves a requisition to a new status
// @Summary      Transition requisition
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Requisition ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requisitions/{id}/transition [post]
func (h *ProcurementHandler) TransitionRequisition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionRequisition(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// ConvertRequisitionToRFQ generates an RFQ from an approved requisition
// @Summary      Convert requisition to RFQ
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Requisition ID"
// @Param        payload  body  service.ConvertToRFQRequest  true  "Conversion payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requisitions/{id}/convert-to-rfq [post]
func (h *ProcurementHandler) ConvertRequisitionToRFQ(c *gin.Context) {
	var req service.ConvertToRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.ConvertRequisitionToRFQ(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// DeleteRequisition removes a draft requisition
// @Summary      Delete requisition
// @Tags         procurement
// @Security     BearerAuth
// @Param        id  path  string  true  "Requisition ID"
// @Success      200  {object}  response.Response
// @Router       /api/requisitions/{id} [delete]
func (h *ProcurementHandler) DeleteRequisition(c *gin.Context) {
	if err := h.svc.DeleteRequisition(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List RFQs
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/rfqs [get]
func (h *ProcurementHandler) ListRFQs(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListRFQs(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get RFQ
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "RFQ ID"
// @Success      200  {object}  response.Response
// @Router       /api/rfqs/{id} [get]
func (h *ProcurementHandler) GetRFQ(c *gin.Context) {
	doc, err := h.svc.GetRFQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Transition RFQ
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "RFQ ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Router       /api/rfqs/{id}/transition [post]
func (h *ProcurementHandler) TransitionRFQ(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionRFQ(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Convert RFQ to purchase quotation
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                             true  "RFQ ID"
// @Param        payload  body  service.ConvertToQuotationRequest  true  "Conversion payload"
// @Success      201  {object}  response.Response
// @Router       /api/rfqs/{id}/convert-to-quotation [post]
func (h *ProcurementHandler) ConvertRFQToQuotation(c *gin.Context) {
	var req service.ConvertToQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.ConvertRFQToQuotation(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      Delete RFQ
// @Tags         procurement
// @Security     BearerAuth
// @Param        id  path  string  true  "RFQ ID"
// @Success      200  {object}  response.Response
// @Router       /api/rfqs/{id} [delete]
func (h *ProcurementHandler) DeleteRFQ(c *gin.Context) {
	if err := h.svc.DeleteRFQ(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List purchase quotations
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-quotations [get]
func (h *ProcurementHandler) ListQuotations(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListQuotations(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get purchase quotation
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-quotations/{id} [get]
func (h *ProcurementHandler) GetQuotation(c *gin.Context) {
	doc, err := h.svc.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Transition purchase quotation
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Quotation ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-quotations/{id}/transition [post]
func (h *ProcurementHandler) TransitionQuotation(c *gin.Context) {
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

// @Summary      Convert purchase quotation to purchase order
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Quotation ID"
// @Param        payload  body  service.ConvertToOrderRequest  true  "Conversion payload"
// @Success      201  {object}  response.Response
// @Router       /api/purchase-quotations/{id}/convert-to-order [post]
func (h *ProcurementHandler) ConvertQuotationToOrder(c *gin.Context) {
	var req service.ConvertToOrderRequest
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

// @Summary      Delete purchase quotation
// @Tags         procurement
// @Security     BearerAuth
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-quotations/{id} [delete]
func (h *ProcurementHandler) DeleteQuotation(c *gin.Context) {
	if err := h.svc.DeleteQuotation(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List purchase orders
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-orders [get]
func (h *ProcurementHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListOrders(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get purchase order
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *ProcurementHandler) GetOrder(c *gin.Context) {
	doc, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Transition purchase order
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Order ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-orders/{id}/transition [post]
func (h *ProcurementHandler) TransitionOrder(c *gin.Context) {
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

// @Summary      Delete purchase order
// @Tags         procurement
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-orders/{id} [delete]
func (h *ProcurementHandler) DeleteOrder(c *gin.Context) {
	if err := h.svc.DeleteOrder(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
