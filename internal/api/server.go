package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/importer"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// Server exposes the import trigger endpoints over HTTP.
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *slog.Logger

	runner  ImportRunner
	metrics *observability.Metrics
	backend string
}

// ImportRunner is the interface the API uses to start and inspect runs.
type ImportRunner interface {
	Start() (string, error)
	StartSynthetic() (string, error)
	Get(id string) (importer.Run, bool)
	List() []importer.Run
	Active() (string, bool)
}

// NewServer creates a new API server. metrics may be nil, in which case
// no metrics route is registered.
func NewServer(cfg *config.Config, runner ImportRunner, backend string, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if cfg.API.Mode != "" {
		gin.SetMode(cfg.API.Mode)
	}

	s := &Server{
		router:  gin.New(),
		logger:  logger.With("component", "api_server"),
		runner:  runner,
		metrics: metrics,
		backend: backend,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(cfg.Metrics)

	s.http = &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server in the background.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server stopping")
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes(mc config.MetricsConfig) {
	// Health
	s.router.GET("/api/health", s.handleHealth)

	// Import control
	imp := s.router.Group("/api/import")
	imp.POST("/start", s.handleStart)
	imp.POST("/synthetic", s.handleStartSynthetic)
	imp.GET("/runs", s.handleListRuns)
	imp.GET("/runs/:id", s.handleGetRun)

	if mc.Enabled && s.metrics != nil {
		s.router.GET(mc.Path, gin.WrapH(s.metrics))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"version": config.Version,
		"store":   s.backend,
	}
	if id, ok := s.runner.Active(); ok {
		body["active_run"] = id
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleStart(c *gin.Context) {
	s.start(c, s.runner.Start)
}

func (s *Server) handleStartSynthetic(c *gin.Context) {
	s.start(c, s.runner.StartSynthetic)
}

// start launches a run and acknowledges immediately; progress is
// available from the runs endpoints.
func (s *Server) start(c *gin.Context, launch func() (string, error)) {
	id, err := launch()
	if errors.Is(err, types.ErrRunInProgress) {
		active, _ := s.runner.Active()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "active_run": active})
		return
	}
	if err != nil {
		s.logger.Error("start import", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "initiated", "run_id": id})
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs := s.runner.List()
	// Per-item results stay on the single-run endpoint.
	out := make([]gin.H, 0, len(runs))
	for _, r := range runs {
		item := gin.H{
			"id":         r.ID,
			"source":     r.Source,
			"state":      r.State,
			"started_at": r.StartedAt,
		}
		if r.FinishedAt != nil {
			item["finished_at"] = r.FinishedAt
		}
		if r.Error != "" {
			item["error"] = r.Error
		}
		if r.Summary != nil {
			item["categories"] = r.Summary.Categories
			item["products"] = r.Summary.Products
			item["articles"] = r.Summary.Articles
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, ok := s.runner.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
