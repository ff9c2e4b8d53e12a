// Package report aggregates per-record results into a batch report and writes it out.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/zombar/seoaudit"
	"github.com/zombar/seoaudit/models"
)

type entry struct {
	position int
	result   models.ContentResult
}

// Builder collects results of a batch as they complete. It is safe for concurrent use.
type Builder struct {
	mu        sync.Mutex
	runID     string
	timestamp time.Time
	total     int
	entries   []entry
	failed    int
}

// NewBuilder starts a report for a batch of total records
func NewBuilder(runID string, total int, timestamp time.Time) *Builder {
	return &Builder{
		runID:     runID,
		timestamp: timestamp,
		total:     total,
	}
}

// Add records the result of the record at catalog position
func (b *Builder) Add(position int, result models.ContentResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry{position: position, result: result})
}

// Fail records a record that could not be processed
func (b *Builder) Fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed++
}

// Finalize computes the summary statistics. Results are ordered by score,
// highest first, keeping catalog order among equal scores.
func (b *Builder) Finalize() *models.BatchReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]entry, len(b.entries))
	copy(entries, b.entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].position < entries[j].position
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].result.SEOScore > entries[j].result.SEOScore
	})

	report := &models.BatchReport{
		RunID:             b.runID,
		Timestamp:         b.timestamp,
		TotalContent:      b.total,
		Processed:         len(entries),
		Failed:            b.failed,
		GradeDistribution: make(map[string]int, len(seoaudit.Grades)),
		ContentResults:    make([]models.ContentResult, 0, len(entries)),
	}
	for _, g := range seoaudit.Grades {
		report.GradeDistribution[g] = 0
	}

	sum := 0
	for i, e := range entries {
		score := e.result.SEOScore
		sum += score
		if i == 0 || score > report.HighestScore {
			report.HighestScore = score
		}
		if i == 0 || score < report.LowestScore {
			report.LowestScore = score
		}
		report.GradeDistribution[e.result.Grade]++
		report.ContentResults = append(report.ContentResults, e.result)
	}
	if len(entries) > 0 {
		report.AverageScore = float64(sum) / float64(len(entries))
	}

	return report
}
