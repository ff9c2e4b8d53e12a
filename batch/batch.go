// Package batch runs the audit pipeline over the whole content catalog.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/metrics"
	"github.com/zombar/seoaudit/models"
	"github.com/zombar/seoaudit/report"
)

var (
	// ErrSourceUnavailable means the catalog could not be read
	ErrSourceUnavailable = errors.New("content source unavailable")
	// ErrNoContent means the catalog returned no records
	ErrNoContent = errors.New("no content to process")
)

// RecordError is the failure of a single record. It never aborts the batch.
type RecordError struct {
	ContentID int64
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("content %d: %v", e.ContentID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Source provides the content catalog
type Source interface {
	FetchAll(ctx context.Context) ([]models.ContentRecord, error)
}

// Store persists per-record results and finalized runs
type Store interface {
	SaveResult(ctx context.Context, result models.ContentResult) error
	SaveRun(ctx context.Context, report *models.BatchReport) error
}

// Auditor scores a single record
type Auditor interface {
	Audit(ctx context.Context, rec *models.ContentRecord) models.ContentResult
}

// Renderer writes the HTML page of a record and returns its path
type Renderer interface {
	RenderAndSave(rec models.ContentRecord, title, description string, keywords []string) (string, error)
}

// Config holds batch settings
type Config struct {
	Workers   int    `yaml:"workers" env:"BATCH_WORKERS"`
	ChunkSize int    `yaml:"chunk_size" env:"BATCH_CHUNK_SIZE"`
	OutputDir string `yaml:"output_dir" env:"BATCH_OUTPUT_DIR"`
	WriteHTML bool   `yaml:"write_html" env:"BATCH_WRITE_HTML"`
	WriteXLSX bool   `yaml:"write_xlsx" env:"BATCH_WRITE_XLSX"`
}

// DefaultConfig returns sequential processing in chunks of ten
func DefaultConfig() Config {
	return Config{
		Workers:   1,
		ChunkSize: 10,
		OutputDir: "output",
		WriteHTML: true,
	}
}

// Runner processes the catalog and produces a batch report
type Runner struct {
	source   Source
	store    Store
	auditor  Auditor
	renderer Renderer
	config   Config
	metrics  *metrics.Metrics
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewRunner creates a Runner. renderer may be nil when HTML output is disabled.
func NewRunner(source Source, store Store, auditor Auditor, renderer Renderer, config Config, m *metrics.Metrics, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.ChunkSize < 1 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}
	return &Runner{
		source:   source,
		store:    store,
		auditor:  auditor,
		renderer: renderer,
		config:   config,
		metrics:  m,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run processes every catalog record and writes the report. Individual record
// failures are logged and counted; only a missing or empty catalog aborts the run.
func (r *Runner) Run(ctx context.Context) (rep *models.BatchReport, err error) {
	start := time.Now()
	r.metrics.BatchStarted()
	defer func() {
		r.metrics.BatchFinished(time.Since(start), err)
	}()

	records, err := r.source.FetchAll(ctx)
	if err != nil {
		r.log.Error("Failed to fetch content", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if len(records) == 0 {
		r.log.Warn("No content found")
		return nil, ErrNoContent
	}

	runID := r.newID()
	log := r.log.With(logger.String("run_id", runID))
	log.Info("Processing content", logger.Int("total", len(records)), logger.Int("workers", r.config.Workers))

	builder := report.NewBuilder(runID, len(records), r.now())
	chunks := (len(records) + r.config.ChunkSize - 1) / r.config.ChunkSize

	for chunk := 0; chunk < chunks; chunk++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch cancelled: %w", err)
		}

		lo := chunk * r.config.ChunkSize
		hi := min(lo+r.config.ChunkSize, len(records))
		log.Info("Processing chunk", logger.Int("chunk", chunk+1), logger.Int("chunks", chunks))

		var g errgroup.Group
		g.SetLimit(r.config.Workers)
		for pos := lo; pos < hi; pos++ {
			rec := records[pos]
			g.Go(func() error {
				if err := r.process(ctx, pos, rec, builder); err != nil {
					log.Error("Failed to process content",
						logger.Int64("content_id", rec.ID),
						logger.Error(err))
					builder.Fail()
					r.metrics.RecordFailure()
				}
				return nil
			})
		}
		g.Wait()
	}

	rep = builder.Finalize()

	if r.store != nil {
		if err := r.store.SaveRun(ctx, rep); err != nil {
			log.Error("Failed to save run", logger.Error(err))
		}
	}

	path, err := report.WriteJSON(r.config.OutputDir, rep)
	if err != nil {
		return rep, fmt.Errorf("failed to write report: %w", err)
	}
	log.Info("Report saved", logger.String("path", path))

	if r.config.WriteXLSX {
		if path, err := report.WriteXLSX(r.config.OutputDir, rep); err != nil {
			log.Error("Failed to write workbook", logger.Error(err))
		} else {
			log.Info("Workbook saved", logger.String("path", path))
		}
	}

	log.Info("Batch complete",
		logger.Int("total", rep.TotalContent),
		logger.Int("processed", rep.Processed),
		logger.Int("failed", rep.Failed),
		logger.Float64("average_score", rep.AverageScore),
		logger.Int("highest_score", rep.HighestScore),
		logger.Int("lowest_score", rep.LowestScore),
		logger.Duration("duration", time.Since(start)))

	return rep, nil
}

// process runs one record through audit, rendering and persistence
func (r *Runner) process(ctx context.Context, pos int, rec models.ContentRecord, builder *report.Builder) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RecordError{ContentID: rec.ID, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	title, description := rec.Title, rec.Description
	result := r.auditor.Audit(ctx, &rec)

	if r.config.WriteHTML && r.renderer != nil {
		path, err := r.renderer.RenderAndSave(rec, title, description, result.Keywords)
		if err != nil {
			r.log.Warn("Failed to save HTML file",
				logger.Int64("content_id", rec.ID),
				logger.Error(err))
		} else {
			result.HTMLFile = path
		}
	}

	if r.store != nil {
		if err := r.store.SaveResult(ctx, result); err != nil {
			r.discardHTML(rec.ID, result.HTMLFile)
			return &RecordError{ContentID: rec.ID, Err: err}
		}
	}

	builder.Add(pos, result)
	r.metrics.RecordScore(result.SEOScore, result.Grade)
	r.log.Info("Content processed",
		logger.Int64("content_id", rec.ID),
		logger.Int("score", result.SEOScore),
		logger.String("grade", result.Grade))
	return nil
}

// discardHTML removes the page of a record whose result was not stored
func (r *Runner) discardHTML(id int64, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.Warn("Failed to remove HTML file",
			logger.Int64("content_id", id),
			logger.String("path", path),
			logger.Error(err))
	}
}
