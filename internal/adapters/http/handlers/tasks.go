package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/glevine/backdropy/internal/adapters/http/dto"
	"github.com/glevine/backdropy/internal/adapters/http/middleware"
	"github.com/glevine/backdropy/internal/ports"
	"github.com/glevine/backdropy/pkg/backdrop"
)

// TaskHandler handles task-related HTTP endpoints.
type TaskHandler struct {
	runner ports.TaskRunner
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(runner ports.TaskRunner) *TaskHandler {
	return &TaskHandler{runner: runner}
}

// ListTasks handles GET /api/v1/tasks and returns the registered task
// definitions.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks := h.runner.Tasks()

	resp := dto.TaskListResponse{
		Tasks: make([]dto.TaskResponse, 0, len(tasks)),
		Count: len(tasks),
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, dto.TaskResponseFromDomain(task))
	}

	c.JSON(http.StatusOK, resp)
}

// RunTask handles POST /api/v1/tasks/:name/run. The optional JSON body
// carries labels that are merged into the request scope before the run,
// so every log line the run emits carries them.
func (h *TaskHandler) RunTask(c *gin.Context) {
	name := c.Param("name")

	var req dto.RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := dto.BindAndValidate(c, &req); err != nil {
			if errors.Is(err, dto.ErrBinding) {
				dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, "invalid request body")
				return
			}

			dto.HandleValidationErrors(c, dto.ValidationErrors(err))

			return
		}

		if err := req.Validate(); err != nil {
			dto.HandleErrorCode(c, dto.ErrorCodeValidation, err.Error())
			return
		}
	}

	fields := make([]backdrop.Field, 0, len(req.Labels)+1)
	fields = append(fields, backdrop.String("task", name))

	// Sorted so the label order in the log prefix is stable.
	keys := make([]string, 0, len(req.Labels))
	for key := range req.Labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields = append(fields, backdrop.String(key, req.Labels[key]))
	}

	middleware.AddToScope(c, fields...)

	run, err := h.runner.Run(c.Request.Context(), name)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskRunResponseFromDomain(run))
}

// RegisterTaskRoutes registers task routes on the given router group.
func (h *TaskHandler) RegisterTaskRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.GET("", h.ListTasks)
	tasks.POST("/:name/run", h.RunTask)
}
