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

type AuditHandler struct {
	svc service.AuditService
}

func NewAuditHandler(svc service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	manager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
	router.GET("/api/audit-logs", manager, h.List)
}

// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action       query  string  false  "Filter by action"
// @Param        entity_type  query  string  false  "Filter by entity type"
// @Param        entity_id    query  string  false  "Filter by entity id"
// @Success      200  {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.svc.List(c.Request.Context(),
		c.Query("action"), c.Query("entity_type"), c.Query("entity_id"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, p.Page, p.Limit, total))
}
