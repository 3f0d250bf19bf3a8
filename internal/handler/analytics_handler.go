package handler

import (
	"net/http"
	"time"

	"taskmind/internal/middleware"
	"taskmind/internal/service"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	router.GET("/api/admin/analytics", auth.RequireAuth(), auth.RequireAdmin(), h.GetAnalytics)
}

// @Summary      Revenue analytics
// @Description  Revenue, payouts, profit and submission counts, optionally bounded by time. Omitted dates leave that side open.
// @Tags         Admin
// @Produce      json
// @Param        start_date  query  string  false  "Start Date (RFC3339)"
// @Param        end_date    query  string  false  "End Date (RFC3339)"
// @Success      200  {object}  response.Response{data=model.RevenueAnalytics}
// @Failure      400  {object}  response.Response  "Invalid date format"
// @Security     BearerAuth
// @Router       /api/admin/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	var window service.Window
	var err error

	if s := c.Query("start_date"); s != "" {
		if window.Start, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date format, expected RFC3339"))
			return
		}
	}
	if s := c.Query("end_date"); s != "" {
		if window.End, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date format, expected RFC3339"))
			return
		}
	}

	stats, err := h.analyticsService.Summarize(c.Request.Context(), window)
	if err != nil {
		respondError(c, err, "Failed to compute analytics")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
