package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
)

// Store is the persistence layer the handlers depend on.
type Store interface {
	Ping(ctx context.Context) error

	ListBoards(ctx context.Context) ([]models.Board, error)
	GetBoard(ctx context.Context, id int64) (models.Board, error)
	CreateBoard(ctx context.Context, name string) (models.Board, error)
	UpdateBoard(ctx context.Context, id int64, name string) (models.Board, error)
	DeleteBoard(ctx context.Context, id int64) (models.Deleted, error)

	ListStatuses(ctx context.Context) ([]models.Status, error)
	GetStatus(ctx context.Context, id int64) (models.Status, error)
	CreateStatus(ctx context.Context, name string) (models.Status, error)
	UpdateStatus(ctx context.Context, id int64, name string) (models.Status, error)
	DeleteStatus(ctx context.Context, id int64) (models.Deleted, error)

	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) (models.Deleted, error)
}

// Options tune optional server behavior.
type Options struct {
	// StaticDir holds a built frontend served outside /api. Empty means API only.
	StaticDir string
	// DefaultStatus names the status given to new tasks that arrive without
	// statusId or statusName. Empty disables the fallback.
	DefaultStatus string
}

// Server provides HTTP handlers for the task board backend.
type Server struct {
	engine        *gin.Engine
	store         Store
	logger        *slog.Logger
	staticDir     string
	defaultStatus string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store Store, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", slog.String("path", c.Request.URL.Path), slog.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprint(recovered)})
	}))
	router.Use(requestLogger(logger))

	srv := &Server{
		engine:        router,
		store:         store,
		logger:        logger,
		staticDir:     opts.StaticDir,
		defaultStatus: strings.TrimSpace(opts.DefaultStatus),
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		boards := api.Group("/boards")
		{
			boards.GET("", s.handleListBoards)
			boards.POST("", s.handleCreateBoard)
			boards.GET(":id", s.handleGetBoard)
			boards.PUT(":id", s.handleUpdateBoard)
			boards.DELETE(":id", s.handleDeleteBoard)
		}

		statuses := api.Group("/statuses")
		{
			statuses.GET("", s.handleListStatuses)
			statuses.POST("", s.handleCreateStatus)
			statuses.GET(":id", s.handleGetStatus)
			statuses.PUT(":id", s.handleUpdateStatus)
			statuses.DELETE(":id", s.handleDeleteStatus)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}
	}

	s.mountStatic()
}

// handleHealth reports whether the database is reachable.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64, answering 400 when it is malformed.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	id, err := models.ParseID(name, c.Param(name))
	if err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return id, true
}

// respondSuccess writes payload as JSON.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client", c.ClientIP()),
		)
	}
}
