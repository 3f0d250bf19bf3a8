package handler

import (
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/service"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	settings := router.Group("/api/admin/settings")
	settings.Use(auth.RequireAuth(), auth.RequireAdmin())
	{
		settings.GET("", h.GetSettings)
		settings.PUT("", h.UpdateSettings)
	}
}

// @Summary      Platform settings
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  response.Response{data=service.Settings}
// @Security     BearerAuth
// @Router       /api/admin/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve settings")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// @Summary      Update platform settings
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body  service.UpdateSettingsRequest  true  "Settings"
// @Success      200  {object}  response.Response{data=service.Settings}
// @Failure      400  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actorID, _ := middleware.UserID(c)

	settings, err := h.settingsService.Update(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err, "Failed to update settings")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}
