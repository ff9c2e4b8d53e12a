package seoaudit

import "github.com/zombar/seoaudit/models"

const (
	// TitleMinLength and TitleMaxLength bound a well-sized meta title, in characters
	TitleMinLength = 30
	TitleMaxLength = 60

	// MinWordCount is the word count below which content is too short and augmentation runs
	MinWordCount = 300
	// RecommendedWordCount is the word count below which content could be longer
	RecommendedWordCount = 500
)

// IssueKind identifies the rule that raised an issue
type IssueKind string

const (
	IssueTitleMissing    IssueKind = "title_missing"
	IssueTitleTooLong    IssueKind = "title_too_long"
	IssueTitleTooShort   IssueKind = "title_too_short"
	IssueContentTooShort IssueKind = "content_too_short"
	IssueContentShortish IssueKind = "content_shortish"
	IssueNoInternalLinks IssueKind = "no_internal_links"
	IssueNoExternalLinks IssueKind = "no_external_links"
	IssueNoViewport      IssueKind = "no_viewport"
	IssueNoSchemaMarkup  IssueKind = "no_schema_markup"
	IssueNoCanonical     IssueKind = "no_canonical"
)

// Signals are the inputs every rule predicate is evaluated against
type Signals struct {
	TitleLength int
	WordCount   int
	Facts       models.StructuralFacts
}

// Rule is one row of the scoring rubric
type Rule struct {
	Kind      IssueKind
	Severity  models.Severity
	Deduction int
	Message   string
	Applies   func(Signals) bool

	// Suggestion is nil when the issue has no remediation text
	Suggestion *models.Suggestion
}

var (
	suggestTitleLength = &models.Suggestion{Priority: 1, Text: "Set the meta title length between 30 and 60 characters"}
	suggestExpand      = &models.Suggestion{Priority: 1, Text: "Expand the content to at least 300 words"}
	suggestInternal    = &models.Suggestion{Priority: 2, Text: "Add internal links to related content"}
	suggestViewport    = &models.Suggestion{Priority: 1, Text: "Add a responsive viewport meta tag for mobile compatibility"}
	suggestSchema      = &models.Suggestion{Priority: 3, Text: "Add appropriate schema markup to the content"}
)

// Rules is the rubric in evaluation order. The three title rules are mutually
// exclusive; all others deduct independently.
var Rules = []Rule{
	{
		Kind: IssueTitleMissing, Severity: models.SeverityCritical, Deduction: 25,
		Message:    "Meta title is missing",
		Suggestion: suggestTitleLength,
		Applies:    func(s Signals) bool { return s.TitleLength == 0 },
	},
	{
		Kind: IssueTitleTooLong, Severity: models.SeverityImportant, Deduction: 15,
		Message:    "Meta title is too long (more than 60 characters)",
		Suggestion: suggestTitleLength,
		Applies:    func(s Signals) bool { return s.TitleLength > TitleMaxLength },
	},
	{
		Kind: IssueTitleTooShort, Severity: models.SeverityModerate, Deduction: 10,
		Message:    "Meta title is too short (less than 30 characters)",
		Suggestion: suggestTitleLength,
		Applies:    func(s Signals) bool { return s.TitleLength > 0 && s.TitleLength < TitleMinLength },
	},
	{
		Kind: IssueContentTooShort, Severity: models.SeverityCritical, Deduction: 25,
		Message:    "Content is too short (less than 300 words)",
		Suggestion: suggestExpand,
		Applies:    func(s Signals) bool { return s.WordCount < MinWordCount },
	},
	{
		Kind: IssueContentShortish, Severity: models.SeverityImportant, Deduction: 10,
		Message: "Content could be longer (less than 500 words)",
		Applies: func(s Signals) bool { return s.WordCount >= MinWordCount && s.WordCount < RecommendedWordCount },
	},
	{
		Kind: IssueNoInternalLinks, Severity: models.SeverityImportant, Deduction: 8,
		Message:    "No internal links found",
		Suggestion: suggestInternal,
		Applies:    func(s Signals) bool { return len(s.Facts.InternalLinks) == 0 },
	},
	{
		Kind: IssueNoExternalLinks, Severity: models.SeverityModerate, Deduction: 7,
		Message: "No external links found",
		Applies: func(s Signals) bool { return len(s.Facts.ExternalLinks) == 0 },
	},
	{
		Kind: IssueNoViewport, Severity: models.SeverityImportant, Deduction: 8,
		Message:    "Viewport meta tag for mobile is missing",
		Suggestion: suggestViewport,
		Applies:    func(s Signals) bool { return !s.Facts.HasMetaViewport },
	},
	{
		Kind: IssueNoSchemaMarkup, Severity: models.SeverityModerate, Deduction: 4,
		Message:    "Schema markup is missing",
		Suggestion: suggestSchema,
		Applies:    func(s Signals) bool { return !s.Facts.HasSchemaMarkup },
	},
	{
		Kind: IssueNoCanonical, Severity: models.SeverityMinor, Deduction: 3,
		Message: "Canonical link is missing",
		Applies: func(s Signals) bool { return !s.Facts.HasCanonical },
	},
}

// Triggered returns the rules that apply to s, in rubric order
func Triggered(s Signals) []*Rule {
	var fired []*Rule
	for i := range Rules {
		if Rules[i].Applies(s) {
			fired = append(fired, &Rules[i])
		}
	}
	return fired
}
