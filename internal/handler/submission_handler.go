package handler

import (
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/service"
	"taskmind/pkg/pagination"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 << 20

type SubmissionHandler struct {
	submissionService service.SubmissionService
}

func NewSubmissionHandler(submissionService service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	router.POST("/api/tasks/:id/submissions", auth.RequireAuth(), h.CreateSubmission)
	router.GET("/api/submissions", auth.RequireAuth(), h.ListMySubmissions)
}

// @Summary      Submit work for a task
// @Description  Multipart form: submission_type (image|text), submission_text, file
// @Tags         Submissions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id               path      string  true   "Task ID"
// @Param        submission_type  formData  string  true   "image or text"
// @Param        submission_text  formData  string  false  "Text answer"
// @Param        file             formData  file    false  "Image"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/tasks/{id}/submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	req := service.CreateSubmissionRequest{
		UserID: userID,
		TaskID: taskID,
		Type:   c.PostForm("submission_type"),
		Text:   c.PostForm("submission_text"),
	}

	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxUploadSize {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "file is larger than 10MB"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "failed to read uploaded file"))
			return
		}
		defer f.Close()
		req.File = &service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	}

	sub, err := h.submissionService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create submission")
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sub))
}

// @Summary      List my submissions
// @Tags         Submissions
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/submissions [get]
func (h *SubmissionHandler) ListMySubmissions(c *gin.Context) {
	p := pagination.Parse(c)
	userID, _ := middleware.UserID(c)

	subs, total, err := h.submissionService.ListMine(c.Request.Context(), userID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve submissions")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(subs, total, p)))
}
