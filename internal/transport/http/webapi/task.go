package webapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-server-go/internal/domain/task"
	"catalog-server-go/internal/platform/logging"
)

// TaskService exposes background job submission and polling.
type TaskService struct {
	runner *task.Runner
	guard  *Guard
	logger *logging.Logger
}

// NewTaskService wires the task endpoints.
func NewTaskService(runner *task.Runner, guard *Guard, logger *logging.Logger) (*TaskService, error) {
	if runner == nil || guard == nil {
		return nil, errors.New("task service requires runner and guard")
	}
	return &TaskService{
		runner: runner,
		guard:  guard,
		logger: logger,
	}, nil
}

// Start registers the task routes. Any authenticated account may submit and
// poll; executors decide per kind what the payload may do.
func (s *TaskService) Start(ctx context.Context, apiGroup *gin.RouterGroup) error {
	group := apiGroup.Group("/tasks")
	group.Use(s.guard.Protect())
	{
		group.POST("", s.handleSubmit)
		group.GET("", s.handleList)
		group.GET("/:id", s.handleGet)
	}

	if s.logger != nil {
		s.logger.Info("[HTTP] task routes registered")
	}
	return nil
}

type submitTaskRequest struct {
	Kind    string         `json:"kind" binding:"required"`
	Payload map[string]any `json:"payload"`
}

func (s *TaskService) handleSubmit(c *gin.Context) {
	var req submitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid task payload", gin.H{"error": err.Error()})
		return
	}

	id, err := s.runner.Submit(req.Kind, req.Payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondSuccess(c, http.StatusAccepted, gin.H{"id": id}, "task accepted")
}

func (s *TaskService) handleList(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.runner.List(), "")
}

func (s *TaskService) handleGet(c *gin.Context) {
	t, ok := s.runner.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "task not found", nil)
		return
	}
	respondSuccess(c, http.StatusOK, t, "")
}
