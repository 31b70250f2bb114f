// Package httpapi exposes the verification pipeline over a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claimsight/dol-evidence/internal/adapter/sqlite"
	"github.com/claimsight/dol-evidence/internal/domain"
	"github.com/claimsight/dol-evidence/internal/verify"
)

// VerifierAPI is the slice of the verifier the HTTP layer needs.
type VerifierAPI interface {
	Discover(ctx context.Context, req verify.Request) (verify.DiscoveryResult, error)
	Verify(ctx context.Context, req verify.Request) (domain.VerificationRecord, error)
	CheckReadiness(ctx context.Context) error
}

// RecordGetter loads persisted verification records.
type RecordGetter interface {
	GetVerification(ctx context.Context, id string) (domain.VerificationRecord, error)
}

// Server serves the verification API plus health and metrics endpoints.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	verifier   VerifierAPI
	records    RecordGetter
	logger     *slog.Logger
}

// NewServer builds the router and wires all routes.
func NewServer(addr string, verifier VerifierAPI, records RecordGetter, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:   engine,
		verifier: verifier,
		records:  records,
		logger:   logger,
	}

	engine.POST("/v1/dol/discover", s.handleDiscover)
	engine.POST("/v1/dol/verify", s.handleVerify)
	engine.GET("/v1/dol/verifications/:id", s.handleGetVerification)
	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", s.handleReady)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleDiscover(c *gin.Context) {
	var req verify.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "DOL_INVALID_REQUEST",
			"error": err.Error(),
		})
		return
	}

	result, err := s.verifier.Discover(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, "discover", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleVerify(c *gin.Context) {
	var req verify.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "DOL_INVALID_REQUEST",
			"error": err.Error(),
		})
		return
	}

	rec, err := s.verifier.Verify(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, "verify", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGetVerification(c *gin.Context) {
	rec, err := s.records.GetVerification(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":  "DOL_RECORD_NOT_FOUND",
			"error": "verification record not found",
		})
		return
	}
	if err != nil {
		s.writeError(c, "get verification", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.verifier.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// writeError maps client errors to their status and code, and everything
// else to an opaque 500 so collaborator details stay out of responses.
func (s *Server) writeError(c *gin.Context, op string, err error) {
	var clientErr *verify.ClientError
	if errors.As(err, &clientErr) {
		c.JSON(clientErr.Status, gin.H{
			"code":  clientErr.Code,
			"error": clientErr.Message,
		})
		return
	}

	s.logger.Error("request failed", "operation", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  "DOL_INTERNAL_ERROR",
		"error": "internal error",
	})
}
