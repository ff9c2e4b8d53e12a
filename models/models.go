package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultAuthor is used when a content record carries no author
const DefaultAuthor = "Anonymous"

// ContentRecord is one unit of content under evaluation
type ContentRecord struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Body        string `json:"body" db:"body"`
	Category    string `json:"category,omitempty" db:"category"`
	Author      string `json:"author,omitempty" db:"author"`
	// Augmented is set once the body has been replaced by generated text
	Augmented bool `json:"augmented" db:"-"`
}

// AuthorOrDefault returns the author, falling back to DefaultAuthor
func (r ContentRecord) AuthorOrDefault() string {
	if r.Author == "" {
		return DefaultAuthor
	}
	return r.Author
}

// StructuralFacts are the markup signals derived from a content body
type StructuralFacts struct {
	InternalLinks   []string `json:"internal_links"`
	ExternalLinks   []string `json:"external_links"`
	HasSchemaMarkup bool     `json:"has_schema_markup"`
	HasMetaViewport bool     `json:"has_meta_viewport"`
	HasCanonical    bool     `json:"has_canonical"`
	MobileFriendly  bool     `json:"mobile_friendly"`
}

// SEOMetadata is the generated metadata bound to one content record
type SEOMetadata struct {
	MetaTitle          string         `json:"meta_title"`
	MetaDescription    string         `json:"meta_description"`
	MetaKeywords       string         `json:"meta_keywords"`
	Keywords           []string       `json:"keywords"`
	OGTitle            string         `json:"og_title"`
	OGDescription      string         `json:"og_description"`
	TwitterCard        string         `json:"twitter_card"`
	TwitterTitle       string         `json:"twitter_title"`
	TwitterDescription string         `json:"twitter_description"`
	CanonicalURL       string         `json:"canonical_url"`
	ViewportMeta       string         `json:"viewport_meta"`
	CharsetMeta        string         `json:"charset_meta"`
	RobotsMeta         string         `json:"robots_meta"`
	CanonicalMeta      string         `json:"canonical_meta"`
	SchemaData         map[string]any `json:"schema_data"`
	EnhancedContent    string         `json:"enhanced_content"`
}

// Severity buckets a scoring issue
type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityImportant Severity = "important"
	SeverityModerate  Severity = "moderate"
	SeverityMinor     Severity = "minor"
)

// Severities lists the buckets from most to least severe
var Severities = []Severity{SeverityCritical, SeverityImportant, SeverityModerate, SeverityMinor}

// IssueSet holds issue texts per severity, in the order they were raised
type IssueSet struct {
	Critical  []string `json:"critical"`
	Important []string `json:"important"`
	Moderate  []string `json:"moderate"`
	Minor     []string `json:"minor"`
}

// NewIssueSet returns an IssueSet whose buckets are empty, non-nil slices
func NewIssueSet() IssueSet {
	return IssueSet{
		Critical:  []string{},
		Important: []string{},
		Moderate:  []string{},
		Minor:     []string{},
	}
}

// Add appends an issue to the bucket for sev
func (s *IssueSet) Add(sev Severity, issue string) {
	switch sev {
	case SeverityCritical:
		s.Critical = append(s.Critical, issue)
	case SeverityImportant:
		s.Important = append(s.Important, issue)
	case SeverityModerate:
		s.Moderate = append(s.Moderate, issue)
	case SeverityMinor:
		s.Minor = append(s.Minor, issue)
	default:
		panic(fmt.Sprintf("unknown severity %q", sev))
	}
}

// Get returns the issues recorded under sev
func (s IssueSet) Get(sev Severity) []string {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityImportant:
		return s.Important
	case SeverityModerate:
		return s.Moderate
	case SeverityMinor:
		return s.Minor
	}
	return nil
}

// Count returns the total number of issues across all buckets
func (s IssueSet) Count() int {
	return len(s.Critical) + len(s.Important) + len(s.Moderate) + len(s.Minor)
}

// Suggestion is a remediation action; priority 1 is the most urgent
type Suggestion struct {
	Priority int    `json:"priority"`
	Text     string `json:"text"`
}

// ScoreResult is the outcome of scoring one content record
type ScoreResult struct {
	Score       int          `json:"score"`
	Issues      IssueSet     `json:"issues"`
	Suggestions []Suggestion `json:"suggestions"`
}

// ContentResult is the per-record entry of a batch report
type ContentResult struct {
	ContentID   int64        `json:"content_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category,omitempty"`
	SEOMetadata SEOMetadata  `json:"seo_metadata"`
	SEOScore    int          `json:"seo_score"`
	Grade       string       `json:"grade"`
	Issues      IssueSet     `json:"issues"`
	Suggestions []Suggestion `json:"suggestions"`
	Keywords    []string     `json:"keywords"`
	HTMLFile    string       `json:"html_file,omitempty"`
	ProcessedAt time.Time    `json:"processed_at"`
}

// BatchReport aggregates the results of one batch run
type BatchReport struct {
	RunID             string          `json:"run_id"`
	Timestamp         time.Time       `json:"timestamp"`
	TotalContent      int             `json:"total_content"`
	Processed         int             `json:"processed"`
	Failed            int             `json:"failed"`
	AverageScore      float64         `json:"average_score"`
	HighestScore      int             `json:"highest_score"`
	LowestScore       int             `json:"lowest_score"`
	GradeDistribution map[string]int  `json:"grade_distribution"`
	ContentResults    []ContentResult `json:"content_results"`
}

// MarshalIndentJSON encodes v with two-space indentation and without HTML escaping,
// so non-Latin text and markup survive unchanged
func MarshalIndentJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OllamaRequest represents a request to the Ollama API
type OllamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// OllamaResponse represents a response from the Ollama API
type OllamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// ScoreRequest is the body of an ad hoc scoring request
type ScoreRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
	Category    string `json:"category"`
	Author      string `json:"author"`
	Augment     bool   `json:"augment"`
}
