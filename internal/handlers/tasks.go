package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

var listQueryKeys = map[string]bool{"status": true, "search": true}

type TaskHandler struct {
	tasks services.Tasks
}

func NewTaskHandler(tasks services.Tasks) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// currentUser is only missing when the route was mounted without
// middleware.Authenticate.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "A valid access token is required",
		})
	}
	return user, ok
}

func parseTaskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || uint64(uint(id)) != id {
		badRequest(c, "task id must be a non-negative integer")
		return 0, false
	}
	return uint(id), true
}

// parseTaskFilter matches query keys case-insensitively; values are exact.
func parseTaskFilter(c *gin.Context) (models.TaskFilter, bool) {
	var filter models.TaskFilter
	query := make(map[string][]string)
	for key, values := range c.Request.URL.Query() {
		name := strings.ToLower(key)
		if !listQueryKeys[name] {
			badRequest(c, "unknown query parameter: "+key)
			return filter, false
		}
		query[name] = append(query[name], values...)
	}
	for name, values := range query {
		if len(values) != 1 {
			badRequest(c, name+" must be given once")
			return filter, false
		}
	}

	if values, ok := query["status"]; ok {
		status, valid := models.ParseTaskStatus(values[0])
		if !valid {
			badRequest(c, "status must be one of OPEN, IN_PROGRESS, DONE")
			return filter, false
		}
		filter.Status = &status
	}
	if values, ok := query["search"]; ok {
		search := values[0]
		filter.Search = &search
	}
	return filter, true
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	filter, ok := parseTaskFilter(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), user, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), user, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, describeBindError(err))
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), user, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, describeBindError(err))
		return
	}
	status, valid := models.ParseTaskStatus(req.Status)
	if !valid {
		badRequest(c, "status must be one of OPEN, IN_PROGRESS, DONE")
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), user, id, status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), user, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
