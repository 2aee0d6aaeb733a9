package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viant/warden/extension"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/store"
)

// Config holds HTTP server settings.
type Config struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	Debug        bool          `json:"debug" yaml:"debug"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:         "",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server exposes the orchestration API over HTTP.
type Server struct {
	registry     *extension.Registry
	orchestrator *orchestrator.Service
	store        store.Service
	engine       *gin.Engine
	httpServer   *http.Server
}

// New creates a gateway server over the supplied components.
func New(registry *extension.Registry, orchestratorService *orchestrator.Service, storeService store.Service, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(TraceID())

	server := &Server{
		registry:     registry,
		orchestrator: orchestratorService,
		store:        storeService,
		engine:       engine,
	}
	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/agents", s.listAgents)
		v1.POST("/actions/:agentId/:actionId/execute", s.executeAction)

		v1.GET("/tasks", s.listTasks)
		v1.GET("/tasks/:id", s.getTask)

		v1.GET("/approvals", s.listApprovals)
		v1.GET("/approvals/:id", s.getApproval)
		v1.POST("/approvals/:id/decision", s.decideApproval)
	}
}

// Handler returns the underlying handler; tests drive it via httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server until Stop is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}
