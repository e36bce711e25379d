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

type ReturnsHandler struct {
	svc service.ReturnsService
}

func NewReturnsHandler(svc service.ReturnsService) *ReturnsHandler {
	return &ReturnsHandler{svc: svc}
}

func (h *ReturnsHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	manager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	returns := router.Group("/api/return-orders")
	{
		returns.POST("", staff, h.CreateReturn)
		returns.GET("", staff, h.ListReturns)
		returns.GET("/:id", staff, h.GetReturn)
		returns.POST("/:id/transition", staff, h.TransitionReturn)
		returns.POST("/:id/convert-to-credit-note", staff, h.ConvertReturnToCreditNote)
		returns.DELETE("/:id", manager, h.DeleteReturn)
	}

	notes := router.Group("/api/credit-notes")
	{
		notes.GET("", staff, h.ListCreditNotes)
		notes.GET("/:id", staff, h.GetCreditNote)
		notes.POST("/:id/transition", manager, h.TransitionCreditNote)
	}
}

// CreateReturn opens a draft return order against a sales invoice
// @Summary      Create return order
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateReturnRequest  true  "Return payload"
// @Success      201  {object}  response.Response
// @Router       /api/return-orders [post]
func (h *ReturnsHandler) CreateReturn(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.CreateReturn(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      List return orders
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/return-orders [get]
func (h *ReturnsHandler) ListReturns(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListReturns(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get return order
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Return order ID"
// @Success      200  {object}  response.Response
// @Router       /api/return-orders/{id} [get]
func (h *ReturnsHandler) GetReturn(c *gin.Context) {
	doc, err := h.svc.GetReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// TransitionReturn moves a return order along its lifecycle. Marking it
// received books the returned quantities back into stock.
// @Summary      Transition return order
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Return order ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/return-orders/{id}/transition [post]
func (h *ReturnsHandler) TransitionReturn(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionReturn(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// @Summary      Convert return order to credit note
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Return order ID"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/return-orders/{id}/convert-to-credit-note [post]
func (h *ReturnsHandler) ConvertReturnToCreditNote(c *gin.Context) {
	doc, err := h.svc.ConvertReturnToCreditNote(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// @Summary      Delete return order
// @Tags         returns
// @Security     BearerAuth
// @Param        id  path  string  true  "Return order ID"
// @Success      200  {object}  response.Response
// @Router       /api/return-orders/{id} [delete]
func (h *ReturnsHandler) DeleteReturn(c *gin.Context) {
	if err := h.svc.DeleteReturn(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List credit notes
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/credit-notes [get]
func (h *ReturnsHandler) ListCreditNotes(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.svc.ListCreditNotes(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, p.Page, p.Limit, total))
}

// @Summary      Get credit note
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Credit note ID"
// @Success      200  {object}  response.Response
// @Router       /api/credit-notes/{id} [get]
func (h *ReturnsHandler) GetCreditNote(c *gin.Context) {
	doc, err := h.svc.GetCreditNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// TransitionCreditNote confirms or cancels a draft credit note. Confirmation
// reduces the source invoice balance and the customer's outstanding amount.
// @Summary      Transition credit note
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Credit note ID"
// @Param        payload  body  service.TransitionRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/credit-notes/{id}/transition [post]
func (h *ReturnsHandler) TransitionCreditNote(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	doc, err := h.svc.TransitionCreditNote(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}
