package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/metrics"
)

const healthTimeout = 2 * time.Second

// UpdateHandler processes one Telegram update to completion.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server provides the webhook endpoint together with health and metrics.
type Server struct {
	updates UpdateHandler
	store   Pinger
	secret  string
	logger  *logrus.Logger
	engine  *gin.Engine
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(updates UpdateHandler, store Pinger, secret string, logger *logrus.Logger) *Server {
	s := &Server{
		updates: updates,
		store:   store,
		secret:  secret,
		logger:  logger,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.engine.POST("/webhook/:secret", s.handleWebhook)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// handleWebhook runs the update before answering. Anything past the secret
// check is acknowledged with 200 so Telegram does not redeliver; failures
// are only logged.
func (s *Server) handleWebhook(c *gin.Context) {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(s.secret)) != 1 {
		c.Status(http.StatusNotFound)
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		metrics.Updates.WithLabelValues("undecodable").Inc()
		s.logger.WithError(err).Warn("Failed to decode webhook update")
		c.Status(http.StatusOK)
		return
	}

	s.updates.HandleUpdate(c.Request.Context(), update)
	c.Status(http.StatusOK)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
