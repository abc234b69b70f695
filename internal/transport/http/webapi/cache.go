package webapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-server-go/internal/domain/auth"
	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/domain/cache"
	"catalog-server-go/internal/platform/logging"
)

// CacheService exposes cache introspection and maintenance to admins.
type CacheService struct {
	store  cache.Store
	guard  *Guard
	logger *logging.Logger
}

// NewCacheService wires the cache endpoints.
func NewCacheService(store cache.Store, guard *Guard, logger *logging.Logger) (*CacheService, error) {
	if store == nil || guard == nil {
		return nil, errors.New("cache service requires store and guard")
	}
	return &CacheService{
		store:  store,
		guard:  guard,
		logger: logger,
	}, nil
}

// Start registers the cache routes.
func (s *CacheService) Start(ctx context.Context, apiGroup *gin.RouterGroup) error {
	group := apiGroup.Group("/cache")
	group.Use(s.guard.Protect(auth.RequireScopes(model.ScopeAdmin)))
	{
		group.GET("/stats", s.handleStats)
		group.POST("/clear", s.handleClear)
		group.POST("/cleanup", s.handleCleanup)
	}

	if s.logger != nil {
		s.logger.Info("[HTTP] cache routes registered")
	}
	return nil
}

func (s *CacheService) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not read cache stats", nil)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"total":    stats.Total(),
		"hit_rate": stats.HitRate(),
		"entries":  stats.Entries,
	}, "")
}

func (s *CacheService) handleClear(c *gin.Context) {
	if err := s.store.Clear(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "could not clear cache", nil)
		return
	}
	if s.logger != nil {
		user, _ := CurrentUser(c)
		s.logger.Info("cache cleared by %s", user.Username)
	}
	respondSuccess(c, http.StatusOK, nil, "cache cleared")
}

func (s *CacheService) handleCleanup(c *gin.Context) {
	removed, err := s.store.CleanupExpired(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not clean up cache", nil)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"removed": removed}, "expired entries removed")
}
