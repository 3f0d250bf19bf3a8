package handler

import (
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/repository"
	"taskmind/internal/service"
	"taskmind/pkg/pagination"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	group := router.Group("/api/admin/audit-logs")
	group.Use(auth.RequireAuth(), auth.RequireAdmin())
	{
		group.GET("", h.GetAuditLogs)
	}
}

// @Summary      Get audit logs
// @Tags         Admin
// @Security     BearerAuth
// @Produce      json
// @Param        action     query  string  false  "Action, e.g. SETTLE_PAYOUT"
// @Param        entity_id  query  string  false  "Entity ID"
// @Param        user_id    query  string  false  "Acting user ID"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        limit      query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/admin/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		actor, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid user_id"))
			return
		}
		filter.ActorID = actor
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve audit logs")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(logs, total, p)))
}
