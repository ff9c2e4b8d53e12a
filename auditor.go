package seoaudit

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
)

// DescriptionPreviewLength is the number of characters of a description kept in a content result
const DescriptionPreviewLength = 200

// MetadataGenerator builds SEO metadata for a record
type MetadataGenerator interface {
	Generate(rec models.ContentRecord) models.SEOMetadata
}

// Auditor runs the per-record pipeline: metadata, scoring and grading
type Auditor struct {
	metadata MetadataGenerator
	scorer   *Scorer
	log      logger.Logger
	now      func() time.Time
}

// NewAuditor creates an Auditor
func NewAuditor(metadata MetadataGenerator, scorer *Scorer, log logger.Logger) *Auditor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Auditor{
		metadata: metadata,
		scorer:   scorer,
		log:      log,
		now:      time.Now,
	}
}

// Audit scores one record. A record without a body is scored on the generated long-form content.
func (a *Auditor) Audit(ctx context.Context, rec *models.ContentRecord) models.ContentResult {
	meta := a.metadata.Generate(*rec)
	if rec.Body == "" {
		rec.Body = meta.EnhancedContent
	}

	result := a.scorer.Score(ctx, rec, &meta)
	grade := Grade(result.Score)

	a.log.Debug("Content scored",
		logger.Int64("content_id", rec.ID),
		logger.Int("score", result.Score),
		logger.String("grade", grade),
		logger.Int("issues", result.Issues.Count()))

	keywords := meta.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return models.ContentResult{
		ContentID:   rec.ID,
		Title:       rec.Title,
		Description: Truncate(rec.Description, DescriptionPreviewLength),
		Category:    rec.Category,
		SEOMetadata: meta,
		SEOScore:    result.Score,
		Grade:       grade,
		Issues:      result.Issues,
		Suggestions: result.Suggestions,
		Keywords:    keywords,
		ProcessedAt: a.now(),
	}
}

// Truncate cuts s to n characters and appends an ellipsis when it was longer
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
