// Package api exposes scoring, stored results and batch runs over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/zombar/seoaudit/batch"
	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/metrics"
	"github.com/zombar/seoaudit/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	scoreTimeout     = 10 * time.Minute
)

// Store reads catalog counts, stored results and past runs
type Store interface {
	CountContents(ctx context.Context) (int, error)
	GetResult(ctx context.Context, contentID int64) (*models.ContentResult, error)
	ListResults(ctx context.Context, limit, offset int) ([]models.ContentResult, error)
	CountResults(ctx context.Context) (int, error)
	LatestRun(ctx context.Context) (*models.BatchReport, error)
}

// Auditor scores a single record
type Auditor interface {
	Audit(ctx context.Context, rec *models.ContentRecord) models.ContentResult
}

// BatchRunner runs one pass over the catalog
type BatchRunner interface {
	Run(ctx context.Context) (*models.BatchReport, error)
}

// Config contains server configuration
type Config struct {
	Addr        string `yaml:"addr" env:"SERVER_ADDR"`
	CORSEnabled bool   `yaml:"cors_enabled" env:"SERVER_CORS_ENABLED"`
	// Schedule is a cron expression for background batch runs; empty disables it.
	Schedule string `yaml:"schedule" env:"SERVER_SCHEDULE"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		CORSEnabled: true,
	}
}

// Deps are the collaborators the server dispatches to.
// AugmentingAuditor is used for score requests asking for augmentation and may be nil.
type Deps struct {
	Store             Store
	Auditor           Auditor
	AugmentingAuditor Auditor
	Runner            BatchRunner
	Metrics           *metrics.Metrics
	Log               logger.Logger
}

// Server represents the API server
type Server struct {
	deps   Deps
	log    logger.Logger
	config Config
	engine *gin.Engine
	server *http.Server
	cron   *cron.Cron

	batchMu sync.Mutex

	reportMu sync.RWMutex
	latest   *models.BatchReport
}

// NewServer creates a new API server. An invalid schedule is an error.
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}

	s := &Server{
		deps:   deps,
		log:    deps.Log,
		config: config,
	}

	if config.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		s.cron = cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
		if _, err := s.cron.AddFunc(config.Schedule, s.scheduledRun); err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", config.Schedule, err)
		}
	}

	s.engine = s.routes()
	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // batch runs answer synchronously
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.loggerMiddleware())
	if s.config.CORSEnabled {
		r.Use(corsMiddleware())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	api := r.Group("/api")
	api.POST("/score", s.handleScore)
	api.GET("/results", s.handleListResults)
	api.GET("/results/:id", s.handleGetResult)
	api.POST("/batch", s.handleBatch)
	api.GET("/reports/latest", s.handleLatestReport)

	return r
}

// Start starts the scheduler, if any, and serves until Shutdown
func (s *Server) Start() error {
	if s.cron != nil {
		s.cron.Start()
		s.log.Info("Batch schedule enabled", logger.String("schedule", s.config.Schedule))
	}

	s.log.Info("Starting API server", logger.String("addr", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server and waits for a scheduled run in flight
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down API server")
	if s.cron != nil {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.server.Shutdown(ctx)
}

// loggerMiddleware logs one entry per request
func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			s.log.Error("HTTP request with errors", append(fields, logger.String("errors", c.Errors.String()))...)
			return
		}
		s.log.Info("HTTP request", fields...)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	count, err := s.deps.Store.CountContents(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to get count")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"count":  count,
		"time":   time.Now(),
	})
}

// handleScore scores a record supplied in the request body without storing it
func (s *Server) handleScore(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" && req.Body == "" {
		respondError(c, http.StatusBadRequest, "title or body is required")
		return
	}

	author := req.Author
	if author == "" {
		author = models.DefaultAuthor
	}
	rec := &models.ContentRecord{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Category:    req.Category,
		Author:      author,
	}

	auditor := s.deps.Auditor
	if req.Augment && s.deps.AugmentingAuditor != nil {
		auditor = s.deps.AugmentingAuditor
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), scoreTimeout)
	defer cancel()

	result := auditor.Audit(ctx, rec)
	s.deps.Metrics.RecordScore(result.SEOScore, result.Grade)

	c.JSON(http.StatusOK, result)
}

// handleListResults lists stored results with pagination
func (s *Server) handleListResults(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)

	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	results, err := s.deps.Store.ListResults(ctx, limit, offset)
	if err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "database error")
		return
	}
	total, err := s.deps.Store.CountResults(ctx)
	if err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// handleGetResult returns the stored result of one record
func (s *Server) handleGetResult(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}

	result, err := s.deps.Store.GetResult(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "database error")
		return
	}
	if result == nil {
		respondError(c, http.StatusNotFound, "result not found")
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleBatch runs one batch and returns its report
func (s *Server) handleBatch(c *gin.Context) {
	if !s.batchMu.TryLock() {
		respondError(c, http.StatusConflict, "a batch run is already in progress")
		return
	}
	defer s.batchMu.Unlock()

	rep, err := s.runBatch(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if errors.Is(err, batch.ErrNoContent) {
			status = http.StatusUnprocessableEntity
		} else if errors.Is(err, batch.ErrSourceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		respondError(c, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, rep)
}

// handleLatestReport returns the most recent report of this process, or the last stored run
func (s *Server) handleLatestReport(c *gin.Context) {
	s.reportMu.RLock()
	rep := s.latest
	s.reportMu.RUnlock()

	if rep == nil {
		var err error
		rep, err = s.deps.Store.LatestRun(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			respondError(c, http.StatusInternalServerError, "database error")
			return
		}
	}
	if rep == nil {
		respondError(c, http.StatusNotFound, "no report available")
		return
	}

	c.JSON(http.StatusOK, rep)
}

// runBatch must be called with batchMu held
func (s *Server) runBatch(ctx context.Context) (*models.BatchReport, error) {
	rep, err := s.deps.Runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.reportMu.Lock()
	s.latest = rep
	s.reportMu.Unlock()
	return rep, nil
}

// scheduledRun is the cron job; it skips when a run is already active
func (s *Server) scheduledRun() {
	if !s.batchMu.TryLock() {
		s.log.Warn("Skipping scheduled batch, a run is already in progress")
		return
	}
	defer s.batchMu.Unlock()

	s.log.Info("Scheduled batch started")
	rep, err := s.runBatch(context.Background())
	if err != nil {
		s.log.Error("Scheduled batch failed", logger.Error(err))
		return
	}
	s.log.Info("Scheduled batch finished",
		logger.String("run_id", rep.RunID),
		logger.Int("processed", rep.Processed),
		logger.Int("failed", rep.Failed))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

// respondError sends an error response
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
