package handler

import (
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/service"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TaskHandler struct {
	catalogService service.CatalogService
}

func NewTaskHandler(catalogService service.CatalogService) *TaskHandler {
	return &TaskHandler{catalogService: catalogService}
}

func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	tasks := router.Group("/api/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.GET("/:id", h.GetTask)
	}

	admin := router.Group("/api/admin/tasks")
	admin.Use(auth.RequireAuth(), auth.RequireAdmin())
	{
		admin.GET("", h.ListAllTasks)
		admin.POST("", h.CreateTask)
		admin.GET("/commission", h.PreviewCommission)
		admin.PATCH("/:id/status", h.UpdateTaskStatus)
	}
}

// @Summary      List active tasks
// @Description  Active tasks, newest first, filtered by a case-insensitive search on title/description and by category
// @Tags         Tasks
// @Produce      json
// @Param        search    query  string  false  "Search text"
// @Param        category  query  string  false  "Category or 'all'"
// @Success      200  {object}  response.Response
// @Router       /api/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.catalogService.List(c.Request.Context(), service.TaskFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, err, "Failed to retrieve tasks")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tasks))
}

// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Param        id  path  string  true  "Task ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.catalogService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve task")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// @Summary      List all tasks (admin)
// @Tags         Admin
// @Produce      json
// @Param        status  query  string  false  "active, inactive or archived"
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/tasks [get]
func (h *TaskHandler) ListAllTasks(c *gin.Context) {
	tasks, err := h.catalogService.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err, "Failed to retrieve tasks")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tasks))
}

// @Summary      Create a task (admin)
// @Description  reward_amount defaults to the client fee minus the platform commission
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body  service.CreateTaskRequest  true  "Task"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actorID, _ := middleware.UserID(c)

	task, err := h.catalogService.Create(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, task))
}

// @Summary      Preview the worker/platform split of a fee (admin)
// @Tags         Admin
// @Produce      json
// @Param        fee  query  string  true  "Client fee"
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/tasks/commission [get]
func (h *TaskHandler) PreviewCommission(c *gin.Context) {
	fee, err := decimal.NewFromString(c.Query("fee"))
	if err != nil || !fee.IsPositive() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "fee must be a positive number"))
		return
	}
	split, err := h.catalogService.Commission(c.Request.Context(), fee)
	if err != nil {
		respondError(c, err, "Failed to compute commission")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, split))
}

// @Summary      Change a task status (admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Task ID"
// @Param        request  body  service.UpdateTaskStatusRequest  true  "Status"
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/admin/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actorID, _ := middleware.UserID(c)

	task, err := h.catalogService.UpdateStatus(c.Request.Context(), actorID, id, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update task status")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}
