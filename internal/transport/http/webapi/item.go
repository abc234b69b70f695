package webapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"catalog-server-go/internal/domain/auth"
	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/domain/item"
	"catalog-server-go/internal/platform/logging"
)

// ItemService exposes the catalog endpoints. Reads require items:read,
// writes require items:write; both scopes are granted at login.
type ItemService struct {
	items  *item.Service
	guard  *Guard
	logger *logging.Logger
}

// NewItemService wires the catalog endpoints.
func NewItemService(items *item.Service, guard *Guard, logger *logging.Logger) (*ItemService, error) {
	if items == nil || guard == nil {
		return nil, errors.New("item service requires catalog and guard")
	}
	return &ItemService{
		items:  items,
		guard:  guard,
		logger: logger,
	}, nil
}

// Start registers all catalog routes.
func (s *ItemService) Start(ctx context.Context, apiGroup *gin.RouterGroup) error {
	reads := apiGroup.Group("/items")
	reads.Use(s.guard.Protect(auth.RequireScopes(model.ScopeItemsRead)))
	{
		reads.GET("", s.handleList)
		reads.GET("/count", s.handleCount)
		reads.GET("/:id", s.handleGet)
	}

	writes := apiGroup.Group("/items")
	writes.Use(s.guard.Protect(auth.RequireScopes(model.ScopeItemsWrite)))
	{
		writes.POST("", s.handleCreate)
		writes.PUT("/:id", s.handleUpdate)
		writes.DELETE("/:id", s.handleDelete)
	}

	if s.logger != nil {
		s.logger.Info("[HTTP] item routes registered")
	}
	return nil
}

func (s *ItemService) handleList(c *gin.Context) {
	items, err := s.items.List(c.Request.Context(), c.Query("owner"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not list items", nil)
		return
	}
	respondSuccess(c, http.StatusOK, items, "")
}

func (s *ItemService) handleCount(c *gin.Context) {
	total, err := s.items.Count(c.Request.Context(), c.Query("owner"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not count items", nil)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"count": total}, "")
}

func (s *ItemService) handleGet(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	found, err := s.items.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			respondError(c, http.StatusNotFound, "item not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "could not load item", nil)
		return
	}
	respondSuccess(c, http.StatusOK, found, "")
}

func (s *ItemService) handleCreate(c *gin.Context) {
	var in item.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid item payload", gin.H{"error": err.Error()})
		return
	}

	user, _ := CurrentUser(c)
	created, err := s.items.Create(c.Request.Context(), user.Username, in)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not create item", nil)
		return
	}
	respondSuccess(c, http.StatusCreated, created, "item created")
}

func (s *ItemService) handleUpdate(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	var in item.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid item payload", gin.H{"error": err.Error()})
		return
	}

	updated, err := s.items.Update(c.Request.Context(), id, in)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			respondError(c, http.StatusNotFound, "item not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "could not update item", nil)
		return
	}
	respondSuccess(c, http.StatusOK, updated, "item updated")
}

func (s *ItemService) handleDelete(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	if err := s.items.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, item.ErrNotFound) {
			respondError(c, http.StatusNotFound, "item not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "could not delete item", nil)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id}, "item deleted")
}

func itemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid item id", nil)
		return 0, false
	}
	return uint(id), true
}
