package handler

import (
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/service"
	"taskmind/pkg/pagination"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	submissions := router.Group("/api/admin/submissions")
	submissions.Use(auth.RequireAuth(), auth.RequireAdmin())
	{
		submissions.GET("", h.ListSubmissions)
		submissions.PUT("/:id/approve", h.ApproveSubmission)
		submissions.PUT("/:id/reject", h.RejectSubmission)
	}
}

// @Summary      List submissions for review
// @Tags         Admin
// @Produce      json
// @Param        status  query  string  false  "pending, approved or rejected"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/submissions [get]
func (h *ReviewHandler) ListSubmissions(c *gin.Context) {
	p := pagination.Parse(c)
	subs, total, err := h.reviewService.List(c.Request.Context(), service.SubmissionFilter{
		Status: c.Query("status"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		respondError(c, err, "Failed to retrieve submissions")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(subs, total, p)))
}

// @Summary      Approve a submission
// @Description  Idempotent; approving a rejected submission returns 409
// @Tags         Admin
// @Produce      json
// @Param        id  path  string  true  "Submission ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/submissions/{id}/approve [put]
func (h *ReviewHandler) ApproveSubmission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	reviewerID, _ := middleware.UserID(c)

	sub, err := h.reviewService.Approve(c.Request.Context(), id, reviewerID)
	if err != nil {
		respondError(c, err, "Failed to approve submission")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sub))
}

// @Summary      Reject a submission
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true   "Submission ID"
// @Param        request  body  service.RejectRequestDTO  false  "Reason"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/submissions/{id}/reject [put]
func (h *ReviewHandler) RejectSubmission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	reviewerID, _ := middleware.UserID(c)

	var req service.RejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	sub, err := h.reviewService.Reject(c.Request.Context(), id, reviewerID, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to reject submission")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sub))
}
