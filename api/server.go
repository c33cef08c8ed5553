package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/enricher"
)

// Server serves the HTTP API.
type Server struct {
	enricher *enricher.Enricher
	token    string
	logger   *slog.Logger
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithToken requires every /v1 request to carry token as a bearer token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer builds the router for e.
func NewServer(e *enricher.Enricher, opts ...Option) *Server {
	s := &Server{enricher: e, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "api")

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/v1")
	if s.token != "" {
		v1.Use(s.authenticate())
	}

	records := v1.Group("/records/:table/:key")
	records.PUT("", s.saveRecord)
	records.GET("", s.getRecord)
	records.DELETE("", s.deleteRecord)
	records.GET("/status", s.indexingStatus)
	records.POST("/index", s.requestIndexing)
	records.POST("/translate", s.requestTranslation)

	v1.POST("/search", s.search)
	v1.POST("/embed", s.embed)
	v1.POST("/translate", s.translate)

	conversations := v1.Group("/conversations")
	conversations.POST("", s.createConversation)
	conversations.GET("", s.listConversations)
	conversations.GET("/:id", s.getConversation)
	conversations.DELETE("/:id", s.deleteConversation)
	conversations.GET("/:id/messages", s.listMessages)
	conversations.POST("/:id/messages", s.reply)

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing bearer token"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"queues": s.enricher.QueueStats(),
	})
}
