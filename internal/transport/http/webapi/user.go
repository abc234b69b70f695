package webapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-server-go/internal/domain/auth"
	"catalog-server-go/internal/domain/auth/model"
	"catalog-server-go/internal/domain/eventbus"
	"catalog-server-go/internal/platform/logging"
)

// UserService exposes account endpoints: registration, login, profile and
// the admin account operations.
type UserService struct {
	manager *auth.Manager
	guard   *Guard
	logger  *logging.Logger
}

// NewUserService wires the account endpoints.
func NewUserService(manager *auth.Manager, guard *Guard, logger *logging.Logger) (*UserService, error) {
	if manager == nil || guard == nil {
		return nil, errors.New("user service requires manager and guard")
	}
	return &UserService{
		manager: manager,
		guard:   guard,
		logger:  logger,
	}, nil
}

// Start registers all account routes.
func (s *UserService) Start(ctx context.Context, apiGroup *gin.RouterGroup) error {
	apiGroup.POST("/users/register", s.handleRegister)
	apiGroup.POST("/users/login", s.handleLogin)

	me := apiGroup.Group("/users/me")
	me.Use(s.guard.Protect())
	{
		me.GET("", s.handleMe)
	}

	admin := apiGroup.Group("/users")
	admin.Use(s.guard.Protect(
		auth.RequireRoles(model.RoleAdmin),
		auth.RequireScopes(model.ScopeAdmin),
	))
	{
		admin.GET("", s.handleList)
		admin.GET("/stats", s.handleStats)
		admin.PUT("/:username/role", s.handleSetRole)
		admin.PUT("/:username/active", s.handleSetActive)
		admin.DELETE("/:username", s.handleDelete)
	}

	if s.logger != nil {
		s.logger.Info("[HTTP] user routes registered")
	}
	return nil
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (s *UserService) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid registration payload", gin.H{"error": err.Error()})
		return
	}

	user, err := s.manager.Register(c.Request.Context(), auth.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondError(c, http.StatusConflict, "username already taken", nil)
			return
		}
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	eventbus.Publish(eventbus.TopicUserChanged, user.Username, "registered")
	respondSuccess(c, http.StatusCreated, user, "account created")
}

type loginRequest struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Scopes   []string `json:"scopes"`
}

func (s *UserService) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid login payload", gin.H{"error": err.Error()})
		return
	}

	token, user, err := s.manager.Login(
		c.Request.Context(), req.Username, req.Password, req.Scopes)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadCredentials):
			respondError(c, http.StatusUnauthorized, "incorrect username or password", nil)
		case errors.Is(err, auth.ErrForbidden):
			respondError(c, http.StatusForbidden, "account is deactivated", nil)
		default:
			respondError(c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	}, "login successful")
}

func (s *UserService) handleMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	respondSuccess(c, http.StatusOK, user, "")
}

func (s *UserService) handleList(c *gin.Context) {
	users, err := s.manager.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not list accounts", nil)
		return
	}
	respondSuccess(c, http.StatusOK, users, "")
}

func (s *UserService) handleStats(c *gin.Context) {
	stats, err := s.manager.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not read account stats", nil)
		return
	}
	respondSuccess(c, http.StatusOK, stats, "")
}

type setRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

func (s *UserService) handleSetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid role payload", gin.H{"error": err.Error()})
		return
	}

	username := c.Param("username")
	user, err := s.manager.SetRole(c.Request.Context(), username, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "account not found", nil)
			return
		}
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	eventbus.Publish(eventbus.TopicUserChanged, username, "role")
	respondSuccess(c, http.StatusOK, user, "role updated")
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (s *UserService) handleSetActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid payload", gin.H{"error": err.Error()})
		return
	}

	username := c.Param("username")
	if err := s.manager.SetActive(c.Request.Context(), username, *req.Active); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "account not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "could not update account", nil)
		return
	}

	eventbus.Publish(eventbus.TopicUserChanged, username, "active")
	respondSuccess(c, http.StatusOK, gin.H{"username": username, "active": *req.Active}, "account updated")
}

func (s *UserService) handleDelete(c *gin.Context) {
	actor, _ := CurrentUser(c)
	username := c.Param("username")

	err := s.manager.Delete(c.Request.Context(), actor.Username, username)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrForbidden):
			respondError(c, http.StatusForbidden, "admins cannot delete their own account", nil)
		case errors.Is(err, auth.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "account not found", nil)
		default:
			respondError(c, http.StatusInternalServerError, "could not delete account", nil)
		}
		return
	}

	eventbus.Publish(eventbus.TopicUserChanged, username, "deleted")
	respondSuccess(c, http.StatusOK, gin.H{"username": username}, "account deleted")
}
