package webapi

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-server-go/internal/platform/logging"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// SystemService exposes unauthenticated service metadata.
type SystemService struct {
	logger  *logging.Logger
	started time.Time
}

// NewSystemService wires the system endpoints.
func NewSystemService(logger *logging.Logger) (*SystemService, error) {
	return &SystemService{
		logger:  logger,
		started: time.Now(),
	}, nil
}

// Start registers the system routes.
func (s *SystemService) Start(ctx context.Context, apiGroup *gin.RouterGroup) error {
	apiGroup.GET("/health", s.handleHealth)

	if s.logger != nil {
		s.logger.Info("[HTTP] system routes registered")
	}
	return nil
}

func (s *SystemService) handleHealth(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"status":     "ok",
		"version":    Version,
		"go_version": runtime.Version(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	}, "")
}
