package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kadavilrahul/reddit-bot/internal/config"
	"github.com/kadavilrahul/reddit-bot/internal/models"
)

// StatusSource provides the session data the API serves. *bot.Bot
// implements it.
type StatusSource interface {
	Stats() models.StatsSnapshot
	Matches() []models.KeywordMatch
	UserInfo(ctx context.Context, username string) (*models.UserInfo, error)
}

// Server exposes the session status API over HTTP.
type Server struct {
	source StatusSource
	log    *logrus.Logger
	srv    *http.Server
}

// New builds the status API server with its routes registered.
func New(source StatusSource, cfg config.ServerConfig, log *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	s := &Server{
		source: source,
		log:    log,
		srv: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
	}

	router.Use(corsMiddleware())
	s.registerRoutes(router)
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/stats", s.getStats)
		api.GET("/matches", s.getMatches)
		api.GET("/me", s.getMe)
		api.GET("/users/:username", s.getUser)
	}

	r.GET("/health", s.healthCheck)
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Infof("Status API starting on %s...", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("status API failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down status API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status API shutdown: %w", err)
	}

	s.log.Info("Status API stopped")
	return nil
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reddit-bot",
	})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.Stats())
}

func (s *Server) getMatches(c *gin.Context) {
	matches := s.source.Matches()
	c.JSON(http.StatusOK, gin.H{
		"total":   len(matches),
		"matches": matches,
	})
}

func (s *Server) getMe(c *gin.Context) {
	user, err := s.source.UserInfo(c.Request.Context(), "")
	if err != nil {
		s.log.Errorf("Failed to fetch account info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch account info"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.source.UserInfo(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.log.Errorf("Failed to fetch user info for %s: %v", c.Param("username"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user info"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// corsMiddleware lets browser dashboards query the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
