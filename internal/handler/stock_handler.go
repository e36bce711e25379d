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

type StockHandler struct {
	svc service.StockService
}

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	admin := middleware.RequireRole(model.RoleAdmin)

	stocks := router.Group("/api/stocks")
	{
		stocks.GET("", staff, h.ListStocks)
		stocks.GET("/available", staff, h.Available)
		stocks.GET("/movements", staff, h.ListMovements)
		stocks.POST("/recompute", admin, h.Recompute)
	}
}

func parseQueryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, name+" must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

// @Summary      List warehouse stocks
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filter by warehouse"
// @Success      200  {object}  response.Response
// @Router       /api/stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	warehouseID, ok := parseQueryID(c, "warehouse_id")
	if !ok {
		return
	}
	p := pagination.Parse(c)
	stocks, total, err := h.svc.ListStocks(c.Request.Context(), warehouseID, p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, stocks, p.Page, p.Limit, total))
}

// Available reports on-hand, pending outflow and available quantity for one
// (warehouse, product) pair
// @Summary      Available stock
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query  string  true  "Warehouse ID"
// @Param        product_id    query  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/stocks/available [get]
func (h *StockHandler) Available(c *gin.Context) {
	warehouseID, ok := parseQueryID(c, "warehouse_id")
	if !ok {
		return
	}
	productID, ok := parseQueryID(c, "product_id")
	if !ok {
		return
	}
	if warehouseID == uuid.Nil || productID == uuid.Nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "warehouse_id and product_id are required"))
		return
	}

	available, err := h.svc.Available(c.Request.Context(), warehouseID, productID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, available))
}

// @Summary      List stock movements
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filter by warehouse"
// @Param        product_id    query  string  false  "Filter by product"
// @Success      200  {object}  response.Response
// @Router       /api/stocks/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	warehouseID, ok := parseQueryID(c, "warehouse_id")
	if !ok {
		return
	}
	productID, ok := parseQueryID(c, "product_id")
	if !ok {
		return
	}
	p := pagination.Parse(c)
	movements, total, err := h.svc.ListMovements(c.Request.Context(), warehouseID, productID, p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, movements, p.Page, p.Limit, total))
}

// Recompute re-sums the movement history for one stock row and compares it
// with the cache, optionally repairing a divergence
// @Summary      Recompute stock cache
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query  string  true   "Warehouse ID"
// @Param        product_id    query  string  true   "Product ID"
// @Param        repair        query  bool    false  "Overwrite the cache on mismatch"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/stocks/recompute [post]
func (h *StockHandler) Recompute(c *gin.Context) {
	warehouseID, ok := parseQueryID(c, "warehouse_id")
	if !ok {
		return
	}
	productID, ok := parseQueryID(c, "product_id")
	if !ok {
		return
	}
	if warehouseID == uuid.Nil || productID == uuid.Nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "warehouse_id and product_id are required"))
		return
	}
	repair := c.Query("repair") == "true"

	result, err := h.svc.Recompute(c.Request.Context(), warehouseID, productID, middleware.UserID(c), repair)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
