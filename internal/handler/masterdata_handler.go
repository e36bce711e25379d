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

type MasterDataHandler struct {
	svc service.MasterDataService
}

func NewMasterDataHandler(svc service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{svc: svc}
}

func (h *MasterDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	manager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	partners := router.Group("/api/partners")
	{
		partners.GET("", staff, h.ListPartners)
		partners.GET("/:id", staff, h.GetPartner)
		partners.POST("", manager, h.CreatePartner)
		partners.PUT("/:id", manager, h.UpdatePartner)
		partners.DELETE("/:id", manager, h.DeletePartner)
	}

	products := router.Group("/api/products")
	{
		products.GET("", staff, h.ListProducts)
		products.GET("/:id", staff, h.GetProduct)
		products.POST("", manager, h.CreateProduct)
		products.PUT("/:id", manager, h.UpdateProduct)
		products.DELETE("/:id", manager, h.DeleteProduct)
	}

	warehouses := router.Group("/api/warehouses")
	{
		warehouses.GET("", staff, h.ListWarehouses)
		warehouses.GET("/:id", staff, h.GetWarehouse)
		warehouses.POST("", manager, h.CreateWarehouse)
		warehouses.PUT("/:id", manager, h.UpdateWarehouse)
		warehouses.DELETE("/:id", manager, h.DeleteWarehouse)
	}
}

// @Summary      List partners
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        type  query  string  false  "Filter by type: CUSTOMER, VENDOR, BOTH"
// @Success      200  {object}  response.Response
// @Router       /api/partners [get]
func (h *MasterDataHandler) ListPartners(c *gin.Context) {
	p := pagination.Parse(c)
	partners, total, err := h.svc.ListPartners(c.Request.Context(), c.Query("type"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, partners, p.Page, p.Limit, total))
}

// @Summary      Get partner
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Router       /api/partners/{id} [get]
func (h *MasterDataHandler) GetPartner(c *gin.Context) {
	partner, err := h.svc.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// @Summary      Create partner
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePartnerRequest  true  "Partner payload"
// @Success      201  {object}  response.Response
// @Router       /api/partners [post]
func (h *MasterDataHandler) CreatePartner(c *gin.Context) {
	var req service.CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	partner, err := h.svc.CreatePartner(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// @Summary      Update partner
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Partner ID"
// @Param        payload  body  service.UpdatePartnerRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Router       /api/partners/{id} [put]
func (h *MasterDataHandler) UpdatePartner(c *gin.Context) {
	var req service.UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	partner, err := h.svc.UpdatePartner(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// @Summary      Delete partner
// @Tags         master-data
// @Security     BearerAuth
// @Param        id  path  string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Router       /api/partners/{id} [delete]
func (h *MasterDataHandler) DeletePartner(c *gin.Context) {
	if err := h.svc.DeletePartner(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List products
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/products [get]
func (h *MasterDataHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.svc.ListProducts(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, products, p.Page, p.Limit, total))
}

// @Summary      Get product
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *MasterDataHandler) GetProduct(c *gin.Context) {
	product, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Create product
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateProductRequest  true  "Product payload"
// @Success      201  {object}  response.Response
// @Router       /api/products [post]
func (h *MasterDataHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	product, err := h.svc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// @Summary      Update product
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Product ID"
// @Param        payload  body  service.UpdateProductRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *MasterDataHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	product, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Delete product
// @Tags         master-data
// @Security     BearerAuth
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *MasterDataHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// @Summary      List warehouses
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/warehouses [get]
func (h *MasterDataHandler) ListWarehouses(c *gin.Context) {
	p := pagination.Parse(c)
	warehouses, total, err := h.svc.ListWarehouses(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, warehouses, p.Page, p.Limit, total))
}

// @Summary      Get warehouse
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Warehouse ID"
// @Success      200  {object}  response.Response
// @Router       /api/warehouses/{id} [get]
func (h *MasterDataHandler) GetWarehouse(c *gin.Context) {
	warehouse, err := h.svc.GetWarehouse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, warehouse))
}

// @Summary      Create warehouse
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateWarehouseRequest  true  "Warehouse payload"
// @Success      201  {object}  response.Response
// @Router       /api/warehouses [post]
func (h *MasterDataHandler) CreateWarehouse(c *gin.Context) {
	var req service.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	warehouse, err := h.svc.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, warehouse))
}

// @Summary      Update warehouse
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Warehouse ID"
// @Param        payload  body  service.UpdateWarehouseRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Router       /api/warehouses/{id} [put]
func (h *MasterDataHandler) UpdateWarehouse(c *gin.Context) {
	var req service.UpdateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}
	warehouse, err := h.svc.UpdateWarehouse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, warehouse))
}

// @Summary      Delete warehouse
// @Tags         master-data
// @Security     BearerAuth
// @Param        id  path  string  true  "Warehouse ID"
// @Success      200  {object}  response.Response
// @Router       /api/warehouses/{id} [delete]
func (h *MasterDataHandler) DeleteWarehouse(c *gin.Context) {
	if err := h.svc.DeleteWarehouse(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
