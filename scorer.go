// Package seoaudit scores content against a fixed SEO rubric, grades it and
// derives the structural facts the rubric needs from the markup.
package seoaudit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
)

// MaxScore is the score of content that triggers no rule
const MaxScore = 100

// Augmenter produces a longer replacement for short content.
// An empty return means no replacement is available.
type Augmenter interface {
	Augment(ctx context.Context, body, title, description string) string
}

// Scorer applies the rubric to a content record
type Scorer struct {
	analyzer  *Analyzer
	augmenter Augmenter
	log       logger.Logger
}

// NewScorer creates a Scorer. augmenter may be nil, in which case short content is scored as is.
func NewScorer(augmenter Augmenter, log logger.Logger) *Scorer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scorer{
		analyzer:  NewAnalyzer(log),
		augmenter: augmenter,
		log:       log,
	}
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EnsureMinimumLength replaces the body of a short record with augmented text.
// The body is replaced at most once per record; it reports whether it was replaced.
func (s *Scorer) EnsureMinimumLength(ctx context.Context, rec *models.ContentRecord, title, description string) bool {
	if s.augmenter == nil || rec.Augmented || WordCount(rec.Body) >= MinWordCount {
		return false
	}

	improved := s.augmenter.Augment(ctx, rec.Body, title, description)
	if improved == "" {
		s.log.Warn("Could not augment short content, scoring original body",
			logger.Int64("content_id", rec.ID),
			logger.Int("word_count", WordCount(rec.Body)))
		return false
	}

	rec.Body = improved
	rec.Augmented = true
	s.log.Info("Content augmented",
		logger.Int64("content_id", rec.ID),
		logger.Int("word_count", WordCount(improved)))
	return true
}

// Score augments short content, derives structural facts from the final body and
// applies the rubric. It never fails: a fault yields a zero score with one critical issue.
func (s *Scorer) Score(ctx context.Context, rec *models.ContentRecord, meta *models.SEOMetadata) (result models.ScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			var id int64
			if rec != nil {
				id = rec.ID
			}
			s.log.Error("SEO scoring failed", logger.Int64("content_id", id), logger.String("fault", fmt.Sprint(r)))
			result = FaultResult(fmt.Errorf("%v", r))
		}
	}()

	s.EnsureMinimumLength(ctx, rec, meta.MetaTitle, meta.MetaDescription)

	facts := s.analyzer.Analyze(rec.Body)
	return Evaluate(meta.MetaTitle, rec.Body, facts)
}

// FaultResult is the well-formed result reported for a record that could not be scored
func FaultResult(err error) models.ScoreResult {
	issues := models.NewIssueSet()
	issues.Add(models.SeverityCritical, fmt.Sprintf("Error calculating score: %v", err))
	return models.ScoreResult{
		Score:       0,
		Issues:      issues,
		Suggestions: []models.Suggestion{},
	}
}

// Evaluate applies the rubric to a title, body and the facts derived from that body
func Evaluate(title, body string, facts models.StructuralFacts) models.ScoreResult {
	signals := Signals{
		TitleLength: utf8.RuneCountInString(title),
		WordCount:   WordCount(body),
		Facts:       facts,
	}

	score := MaxScore
	issues := models.NewIssueSet()
	fired := map[models.Severity][]*Rule{}
	for _, rule := range Triggered(signals) {
		score -= rule.Deduction
		issues.Add(rule.Severity, rule.Message)
		fired[rule.Severity] = append(fired[rule.Severity], rule)
	}

	return models.ScoreResult{
		Score:       clamp(score),
		Issues:      issues,
		Suggestions: suggestionsFor(fired),
	}
}

// suggestionsFor walks issues from most to least severe and returns the
// remediation of each, stably ordered by priority
func suggestionsFor(fired map[models.Severity][]*Rule) []models.Suggestion {
	suggestions := []models.Suggestion{}
	for _, sev := range models.Severities {
		for _, rule := range fired[sev] {
			if rule.Suggestion != nil {
				suggestions = append(suggestions, *rule.Suggestion)
			}
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority < suggestions[j].Priority
	})
	return suggestions
}

func clamp(score int) int {
	return max(0, min(score, MaxScore))
}

// Grade maps a score to a letter grade
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Grades lists the letter grades from best to worst
var Grades = []string{"A", "B", "C", "D", "F"}
