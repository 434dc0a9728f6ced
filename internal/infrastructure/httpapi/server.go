package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"NewsScanner/internal/config"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/usecase"
)

// Deps carries everything the admin API needs.
type Deps struct {
	Pipeline *usecase.Pipeline
	Articles ports.ArticleRepository
	Runs     ports.RunLog
	Logger   *slog.Logger
}

// Server exposes the admin HTTP API: crawl trigger, article listing,
// review-status transitions, run history, and the external cron hook.
type Server struct {
	engine *gin.Engine
	addr   string
}

// NewServer builds the router with all admin routes registered.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{
		pipeline:   deps.Pipeline,
		articles:   deps.Articles,
		runs:       deps.Runs,
		cronSecret: cfg.CronSecret,
		logger:     deps.Logger,
	}

	api := router.Group("/api")
	{
		api.POST("/crawl", h.crawl)
		api.GET("/articles", h.listArticles)
		api.POST("/articles/status", h.updateStatus)
		api.GET("/runs", h.listRuns)
		api.GET("/cron", h.cron)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})

	return &Server{engine: router, addr: cfg.Addr}
}

// Run starts the HTTP listener and blocks.
func (s *Server) Run() error {
	return s.engine.Run(s.addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
