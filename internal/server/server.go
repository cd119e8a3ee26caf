// Package server exposes the blueprint matcher over HTTP. Authentication is
// handled upstream (external collaborator); this surface is unauthenticated.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"florify/internal/domain"
	"florify/internal/usecase"
)

// Server wires the match service into a gin router.
type Server struct {
	router *gin.Engine
	svc    *usecase.MatchService
	logger *zap.Logger
}

type matchRequest struct {
	GardenID  string    `json:"gardenId"`
	Embedding []float32 `json:"embedding"`
	Threshold float64   `json:"threshold"`
}

type matchPayload struct {
	Index          int     `json:"index"`
	Similarity     float64 `json:"similarity"`
	FilledFilename string  `json:"filledFilename"`
	FilledImageURL string  `json:"filledImageUrl,omitempty"`
	Simulated      bool    `json:"simulated,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type matchResponse struct {
	Success bool          `json:"success"`
	Match   *matchPayload `json:"match"`
	Message string        `json:"message,omitempty"`
}

// New creates a server around the given match service.
func New(svc *usecase.MatchService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{router: router, svc: svc, logger: logger}
	router.Use(s.requestLogger())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/match", s.handleMatch)
		v1.GET("/stats", s.handleStats)
	}

	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info("serving blueprint matcher", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Handler returns the underlying http.Handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}

func (s *Server) handleMatch(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, matchResponse{
			Success: false,
			Message: "Invalid JSON body",
		})
		return
	}

	result, err := s.svc.Match(usecase.MatchRequest{
		Key:       req.GardenID,
		Embedding: req.Embedding,
		Threshold: req.Threshold,
	})
	if err != nil {
		// Internal diagnostics stay in the log; the caller gets a generic
		// failure.
		s.logger.Error("match failed",
			zap.String("garden_id", req.GardenID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, matchResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, matchResponse{
			Success: true,
			Match:   nil,
			Message: "No match above threshold",
		})
		return
	}

	c.JSON(http.StatusOK, matchResponse{
		Success: true,
		Match:   toPayload(result),
		Message: "Blueprint matched successfully",
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.Stats()
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func toPayload(r *domain.MatchResult) *matchPayload {
	p := &matchPayload{
		Index:          r.Index,
		Similarity:     r.Similarity,
		FilledFilename: r.FilledFilename,
		Simulated:      r.Simulated,
		Error:          r.Err,
	}
	if r.ImageBase64 != "" {
		p.FilledImageURL = fmt.Sprintf("data:%s;base64,%s", r.ContentType, r.ImageBase64)
	}
	return p
}
