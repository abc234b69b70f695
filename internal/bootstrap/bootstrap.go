package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "catalog-server-go/internal/domain/auth"
	authstore "catalog-server-go/internal/domain/auth/store"
	domaincache "catalog-server-go/internal/domain/cache"
	"catalog-server-go/internal/domain/eventbus"
	domainitem "catalog-server-go/internal/domain/item"
	domaintask "catalog-server-go/internal/domain/task"
	platformconfig "catalog-server-go/internal/platform/config"
	platformerrors "catalog-server-go/internal/platform/errors"
	platformlogging "catalog-server-go/internal/platform/logging"
	platformstorage "catalog-server-go/internal/platform/storage"
	httptransport "catalog-server-go/internal/transport/http"
	httpwebapi "catalog-server-go/internal/transport/http/webapi"
	wstransport "catalog-server-go/internal/transport/ws"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config      *platformconfig.Config
	logger      *platformlogging.Logger
	db          *gorm.DB
	cacheStore  domaincache.Store
	tokenCodec  *domainauth.TokenCodec
	authManager *domainauth.Manager
	authorizer  *domainauth.Authorizer
	items       *domainitem.Service
	tasks       *domaintask.Runner
	hub         *wstransport.Hub
}

// Run starts the whole service lifecycle: configuration, dependencies, the
// HTTP and websocket transports, and graceful shutdown on SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	defer func() {
		state.tasks.Shutdown()
		state.hub.CloseAll()
		if err := state.authManager.Close(context.Background()); err != nil {
			logger.Error("auth store close failed: %v", err)
		}
		if err := state.cacheStore.Close(); err != nil {
			logger.Error("cache store close failed: %v", err)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.Info("[bootstrap] server stopped cleanly")
	logger.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	logger.Info("[bootstrap] initialisation order")
	for _, step := range steps {
		logger.Info("[bootstrap]   %s", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the ordered initialisation steps and their dependencies.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init",
			Title:     "Open database",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStorageStep,
		},
		{
			ID:        "cache:init",
			Title:     "Initialise cache store",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindCache,
			Execute:   initCacheStep,
		},
		{
			ID:        "auth:init",
			Title:     "Initialise auth domain",
			DependsOn: []string{"storage:init"},
			Kind:      platformerrors.KindAuth,
			Execute:   initAuthStep,
		},
		{
			ID:        "catalog:init",
			Title:     "Initialise catalog service",
			DependsOn: []string{"storage:init", "cache:init"},
			Kind:      platformerrors.KindDomain,
			Execute:   initCatalogStep,
		},
		{
			ID:        "tasks:init",
			Title:     "Start task runner",
			DependsOn: []string{"logging:init", "catalog:init"},
			Kind:      platformerrors.KindDomain,
			Execute:   initTasksStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	config, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}
	state.logger = logger
	logger.Info("[bootstrap] logging ready, level=%s", state.config.Log.Level)
	return nil
}

func initStorageStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.DSN)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init", "failed to open database", err)
	}
	state.db = db
	return nil
}

func initCacheStep(_ context.Context, state *appState) error {
	cfg := state.config.Cache
	store, err := domaincache.New(domaincache.Config{
		Driver:        strings.ToLower(strings.TrimSpace(cfg.Driver)),
		DefaultTTL:    cfg.DefaultTTL,
		SweepInterval: cfg.SweepInterval,
		Redis: &domaincache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindCache, "cache:init", "failed to initialise cache store", err)
	}
	state.cacheStore = store
	return nil
}

func initAuthStep(ctx context.Context, state *appState) error {
	cfg := state.config.Auth

	codec, err := domainauth.NewTokenCodec(cfg.Secret, cfg.TokenTTL)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init", "failed to create token codec", err)
	}

	users, err := authstore.New(authstore.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Store.Driver)),
		Redis: &authstore.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Username: cfg.Store.Redis.Username,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	}, authstore.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init", "failed to create user store", err)
	}

	manager, err := domainauth.NewManager(users, codec, state.logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init", "failed to create auth manager", err)
	}
	if err := manager.EnsureAdmin(ctx); err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init", "failed to seed admin account", err)
	}

	authorizer, err := domainauth.NewAuthorizer(codec, users, state.logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init", "failed to create authorizer", err)
	}

	state.tokenCodec = codec
	state.authManager = manager
	state.authorizer = authorizer
	return nil
}

func initCatalogStep(_ context.Context, state *appState) error {
	items, err := domainitem.NewService(
		state.db,
		state.cacheStore,
		state.config.Cache.DefaultTTL,
		state.logger,
	)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindDomain, "catalog:init", "failed to create catalog service", err)
	}
	state.items = items
	return nil
}

func initTasksStep(_ context.Context, state *appState) error {
	runner := domaintask.NewRunner(state.config.Tasks.Workers, state.config.Tasks.QueueSize, state.logger)
	if err := registerExecutors(runner, state); err != nil {
		return platformerrors.Wrap(platformerrors.KindDomain, "tasks:init", "failed to register task executors", err)
	}
	state.tasks = runner
	return nil
}

// registerExecutors binds the built-in background jobs.
func registerExecutors(runner *domaintask.Runner, state *appState) error {
	// Rebuilds the full item listing cache entry ahead of demand.
	if err := runner.RegisterExecutor("catalog.warm",
		func(ctx context.Context, _ map[string]any) (any, error) {
			items, err := state.items.List(ctx, "")
			if err != nil {
				return nil, err
			}
			return map[string]any{"warmed": len(items)}, nil
		}); err != nil {
		return err
	}

	// Drops expired cache entries on demand, reporting how many went away.
	if err := runner.RegisterExecutor("cache.cleanup",
		func(ctx context.Context, _ map[string]any) (any, error) {
			removed, err := state.cacheStore.CleanupExpired(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"removed": removed}, nil
		}); err != nil {
		return err
	}

	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	router, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	router.Engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, httpwebapi.APIResponse{
				Success: false,
				Data:    gin.H{},
				Message: "not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.Status(http.StatusNotFound)
	})

	guard := httpwebapi.NewGuard(state.authorizer)

	services := []interface {
		Start(context.Context, *gin.RouterGroup) error
	}{}

	systemService, err := httpwebapi.NewSystemService(logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:init-services", "failed to create system service", err)
	}
	userService, err := httpwebapi.NewUserService(state.authManager, guard, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:init-services", "failed to create user service", err)
	}
	itemService, err := httpwebapi.NewItemService(state.items, guard, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:init-services", "failed to create item service", err)
	}
	cacheService, err := httpwebapi.NewCacheService(state.cacheStore, guard, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:init-services", "failed to create cache service", err)
	}
	taskService, err := httpwebapi.NewTaskService(state.tasks, guard, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:init-services", "failed to create task service", err)
	}
	services = append(services, systemService, userService, itemService, cacheService, taskService)

	for _, svc := range services {
		if err := svc.Start(groupCtx, router.API); err != nil {
			return platformerrors.Wrap(platformerrors.KindTransport, "http:register-routes", "failed to register routes", err)
		}
	}

	state.hub = wstransport.NewHub(logger)
	wsService, err := wstransport.NewService(state.hub, state.authorizer, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "ws:init-service", "failed to create websocket service", err)
	}
	if err := wsService.Start(groupCtx, router.Engine); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "ws:register-routes", "failed to register websocket route", err)
	}

	// Finished background jobs get pushed to the submitting side over the
	// socket; every connected client sees task completions.
	hub := state.hub
	if err := eventbus.SubscribeAsync(eventbus.TopicTaskFinished,
		func(t domaintask.Task) {
			hub.Broadcast(wstransport.Event{
				Type:    wstransport.EventTask,
				Payload: t,
				SentAt:  time.Now(),
			}, "")
		}); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "ws:subscribe-events", "failed to subscribe to task events", err)
	}

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.Info("[HTTP] listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("[HTTP] shutdown failed: %v", err)
			} else {
				logger.Info("[HTTP] stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[HTTP] server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.Info("[bootstrap] shutdown signal received, draining")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("[bootstrap] shutdown error: %v", err)
			return err
		}
		logger.Info("[bootstrap] all services stopped")
	case <-time.After(15 * time.Second):
		logger.Error("[bootstrap] shutdown timed out, forcing exit")
		return errors.New("shutdown timed out")
	}
	return nil
}
