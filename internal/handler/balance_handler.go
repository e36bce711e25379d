package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"
)

type BalanceHandler struct {
	svc service.BalanceService
}

func NewBalanceHandler(svc service.BalanceService) *BalanceHandler {
	return &BalanceHandler{svc: svc}
}

func (h *BalanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	admin := middleware.RequireRole(model.RoleAdmin)

	balances := router.Group("/api/balances")
	{
		balances.GET("/customers", staff, h.ListCustomerBalances)
		balances.GET("/customers/:id", staff, h.GetCustomerBalance)
		balances.POST("/customers/:id/recompute", admin, h.RecomputeCustomer)
		balances.GET("/vendors", staff, h.ListVendorBalances)
		balances.GET("/vendors/:id", staff, h.GetVendorBalance)
		balances.POST("/vendors/:id/recompute", admin, h.RecomputeVendor)
	}
}

func parsePathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "id must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

// @Summary      List customer balances
// @Tags         balances
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/balances/customers [get]
func (h *BalanceHandler) ListCustomerBalances(c *gin.Context) {
	p := pagination.Parse(c)
	balances, total, err := h.svc.ListCustomers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, balances, p.Page, p.Limit, total))
}

// @Summary      Get customer balance
// @Tags         balances
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Router       /api/balances/customers/{id} [get]
func (h *BalanceHandler) GetCustomerBalance(c *gin.Context) {
	customerID, ok := parsePathID(c)
	if !ok {
		return
	}
	balance, err := h.svc.GetCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, balance))
}

// RecomputeCustomer re-derives the cached outstanding balance from invoices,
// payments and credit notes
// @Summary      Recompute customer balance
// @Tags         balances
// @Security     BearerAuth
// @Produce      json
// @Param        id      path   string  true   "Customer ID"
// @Param        repair  query  bool    false  "Overwrite the cache on mismatch"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/balances/customers/{id}/recompute [post]
func (h *BalanceHandler) RecomputeCustomer(c *gin.Context) {
	customerID, ok := parsePathID(c)
	if !ok {
		return
	}
	repair := c.Query("repair") == "true"
	result, err := h.svc.RecomputeCustomer(c.Request.Context(), customerID, middleware.UserID(c), repair)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// @Summary      List vendor balances
// @Tags         balances
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/balances/vendors [get]
func (h *BalanceHandler) ListVendorBalances(c *gin.Context) {
	p := pagination.Parse(c)
	balances, total, err := h.svc.ListVendors(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, balances, p.Page, p.Limit, total))
}

// @Summary      Get vendor balance
// @Tags         balances
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Vendor ID"
// @Success      200  {object}  response.Response
// @Router       /api/balances/vendors/{id} [get]
func (h *BalanceHandler) GetVendorBalance(c *gin.Context) {
	vendorID, ok := parsePathID(c)
	if !ok {
		return
	}
	balance, err := h.svc.GetVendor(c.Request.Context(), vendorID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, balance))
}

// @Summary      Recompute vendor balance
// @Tags         balances
// @Security     BearerAuth
// @Produce      json
// @Param        id      path   string  true   "Vendor ID"
// @Param        repair  query  bool    false  "Overwrite the cache on mismatch"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/balances/vendors/{id}/recompute [post]
func (h *BalanceHandler) RecomputeVendor(c *gin.Context) {
	vendorID, ok := parsePathID(c)
	if !ok {
		return
	}
	repair := c.Query("repair") == "true"
	result, err := h.svc.RecomputeVendor(c.Request.Context(), vendorID, middleware.UserID(c), repair)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
