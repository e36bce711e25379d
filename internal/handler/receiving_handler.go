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

type ReceivingHandler struct {
	svc service.ReceivingService
}

func NewReceivingHandler(svc service.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{svc: svc}
}

func (h *ReceivingHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)

	receipts := router.Group("/api/goods-receipts")
	{
		receipts.POST("", staff, h.CreateReceipt)
		receipts.GET("", staff, h.ListReceipts)
		receipts.GET("/:id", staff, h.GetReceipt)
		receipts.POST("/:id/transition", staff, h.TransitionReceipt)
		receipts.POST("/:id/convert-to-invoice", staff, h.ConvertReceiptToInvoice)
	}
}

// CreateReceipt opens a draft goods receipt against a sent purchase order
// @Summary      Create goods receipt
// @Tags         receiving
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateReceiptRequest  true  "Receipt payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/goods-receipts [post]
func (h *ReceivingHandler) CreateReceipt(c *gin.Context) {
	var req service.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.CreateReceipt(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      List goods receipts
// @Tags         receiving
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/goods-receipts [get]
func (h *ReceivingHandler) ListReceipts(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListReceipts(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get goods receipt
// @Tags         receiving
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Receipt ID"
// @Success      200  {object}  response.Response
// @Router       /api/goods-receipts/{id} [get]
func (h *ReceivingHandler) GetReceipt(c *gin.Context) {
	doc, err := h.svc.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// TransitionReceipt confirms or cancels a draft receipt. Confirmation books
// the stock in and updates received quantities on the purchase order.
// @Summary      Transition goods receipt
// @Tags         receiving
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Receipt ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/goods-receipts/{id}/transition [post]
func (h *ReceivingHandler) TransitionReceipt(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionReceipt(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Convert goods receipt to purchase invoice
// @Tags         receiving
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Receipt ID"
// @Param        payload  body  service.ConvertToInvoiceRequest  true  "Conversion payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/goods-receipts/{id}/convert-to-invoice [post]
func (h *ReceivingHandler) ConvertReceiptToInvoice(c *gin.Context) {
	var req service.ConvertToInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.ConvertReceiptToInvoice(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}
