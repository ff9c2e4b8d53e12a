package seoaudit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
)

// stubAugmenter returns a fixed replacement and records how it was called
type stubAugmenter struct {
	replacement string
	calls       int
	gotBody     string
	gotTitle    string
	gotDesc     string
}

func (s *stubAugmenter) Augment(_ context.Context, body, title, description string) string {
	s.calls++
	s.gotBody, s.gotTitle, s.gotDesc = body, title, description
	return s.replacement
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

const (
	viewportTag  = `<meta name="viewport" content="width=device-width, initial-scale=1.0">`
	canonicalTag = `<link rel="canonical" href="https://example.com/content/1">`
	schemaTag    = `<article itemscope itemtype="https://schema.org/Article"></article>`
	linksMarkup  = `<a href="/related">related</a> <a href="https://example.org/ref">ref</a>`
)

func wellStructured(wordCount int) string {
	return viewportTag + canonicalTag + schemaTag + linksMarkup + " " + words(wordCount)
}

func TestEvaluateAllCategoriesAreAdditive(t *testing.T) {
	body := words(50)
	result := Evaluate("", body, NewAnalyzer(nil).Analyze(body))

	assert.Equal(t, 100-25-25-8-7-8-4-3, result.Score)
	assert.Equal(t, 20, result.Score)

	assert.Equal(t, []string{"Meta title is missing", "Content is too short (less than 300 words)"}, result.Issues.Critical)
	assert.Equal(t, []string{"No internal links found", "Viewport meta tag for mobile is missing"}, result.Issues.Important)
	assert.Equal(t, []string{"No external links found", "Schema markup is missing"}, result.Issues.Moderate)
	assert.Equal(t, []string{"Canonical link is missing"}, result.Issues.Minor)

	assert.Equal(t, []models.Suggestion{
		*suggestTitleLength,
		*suggestExpand,
		*suggestViewport,
		*suggestInternal,
		*suggestSchema,
	}, result.Suggestions)
}

func TestEvaluateTitleLengthBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantKind  string
		deduction int
	}{
		{name: "missing", title: "", wantKind: "Meta title is missing", deduction: 25},
		{name: "29 characters", title: strings.Repeat("t", 29), wantKind: "Meta title is too short (less than 30 characters)", deduction: 10},
		{name: "exactly 30 characters", title: strings.Repeat("t", 30)},
		{name: "45 characters", title: strings.Repeat("t", 45)},
		{name: "exactly 60 characters", title: strings.Repeat("t", 60)},
		{name: "61 characters", title: strings.Repeat("t", 61), wantKind: "Meta title is too long (more than 60 characters)", deduction: 15},
		{name: "45 multibyte characters", title: strings.Repeat("س", 45)},
	}

	body := wellStructured(600)
	facts := NewAnalyzer(nil).Analyze(body)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.title, body, facts)
			assert.Equal(t, 100-tt.deduction, result.Score)

			all := append(append(append([]string{}, result.Issues.Critical...), result.Issues.Important...), result.Issues.Moderate...)
			if tt.wantKind == "" {
				assert.Equal(t, 0, result.Issues.Count())
				assert.Empty(t, result.Suggestions)
				return
			}
			assert.Equal(t, []string{tt.wantKind}, all)
			require.Len(t, result.Suggestions, 1)
			assert.Equal(t, 1, result.Suggestions[0].Priority)
		})
	}
}

func TestEvaluateContentLength(t *testing.T) {
	title := strings.Repeat("t", 45)

	tests := []struct {
		name      string
		words     int
		wantScore int
		critical  int
		important int
	}{
		{name: "299 words", words: 299, wantScore: 75, critical: 1},
		{name: "300 words", words: 300, wantScore: 90, important: 1},
		{name: "499 words", words: 499, wantScore: 90, important: 1},
		{name: "500 words", words: 500, wantScore: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the markup adds 11 whitespace-separated words
			body := wellStructured(tt.words - 11)
			require.Equal(t, tt.words, WordCount(body))

			result := Evaluate(title, body, NewAnalyzer(nil).Analyze(body))
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Len(t, result.Issues.Critical, tt.critical)
			assert.Len(t, result.Issues.Important, tt.important)
		})
	}
}

func TestEvaluateScoreAlwaysClamped(t *testing.T) {
	bodies := []string{"", words(10), words(400), wellStructured(1000), viewportTag}
	titles := []string{"", "short", strings.Repeat("x", 45), strings.Repeat("x", 90)}

	for _, body := range bodies {
		for _, title := range titles {
			result := Evaluate(title, body, NewAnalyzer(nil).Analyze(body))
			assert.GreaterOrEqual(t, result.Score, 0)
			assert.LessOrEqual(t, result.Score, 100)
			assert.LessOrEqual(t, len(result.Suggestions), result.Issues.Count())
		}
	}

	assert.Equal(t, 0, clamp(-40))
	assert.Equal(t, 100, clamp(130))
	assert.Equal(t, 55, clamp(55))
}

func TestSuggestionsStableByPriority(t *testing.T) {
	// too long title (important, p1), no internal links (important, p2),
	// no viewport (important, p1), no schema (moderate, p3)
	body := canonicalTag + `<a href="https://example.org">x</a> ` + words(600)
	result := Evaluate(strings.Repeat("x", 70), body, NewAnalyzer(nil).Analyze(body))

	assert.Equal(t, []models.Suggestion{*suggestTitleLength, *suggestViewport, *suggestInternal, *suggestSchema}, result.Suggestions)
	for i := 1; i < len(result.Suggestions); i++ {
		assert.LessOrEqual(t, result.Suggestions[i-1].Priority, result.Suggestions[i].Priority)
	}
}

func TestScoreAugmentationSuccessRecomputesFacts(t *testing.T) {
	aug := &stubAugmenter{replacement: viewportTag + " " + words(600)}
	scorer := NewScorer(aug, nil)

	rec := &models.ContentRecord{ID: 1, Body: words(50)}
	meta := &models.SEOMetadata{MetaTitle: strings.Repeat("t", 45), MetaDescription: "desc"}

	result := scorer.Score(context.Background(), rec, meta)

	assert.Equal(t, 1, aug.calls)
	assert.Equal(t, words(50), aug.gotBody)
	assert.Equal(t, meta.MetaTitle, aug.gotTitle)
	assert.Equal(t, "desc", aug.gotDesc)

	assert.True(t, rec.Augmented)
	assert.Equal(t, aug.replacement, rec.Body)

	assert.Empty(t, result.Issues.Critical)
	assert.NotContains(t, result.Issues.Important, "Content could be longer (less than 500 words)")
	assert.NotContains(t, result.Issues.Important, "Viewport meta tag for mobile is missing",
		"viewport present only in augmented body must be detected")
	assert.Equal(t, 100-8-7-4-3, result.Score)
}

func TestScoreAugmentationBelowRecommendedLength(t *testing.T) {
	aug := &stubAugmenter{replacement: words(350)}
	rec := &models.ContentRecord{ID: 2, Body: words(20)}

	result := NewScorer(aug, nil).Score(context.Background(), rec, &models.SEOMetadata{MetaTitle: strings.Repeat("t", 45)})

	assert.Empty(t, result.Issues.Critical)
	assert.Contains(t, result.Issues.Important, "Content could be longer (less than 500 words)")
}

func TestScoreAugmentationFallbackKeepsOriginal(t *testing.T) {
	aug := &stubAugmenter{replacement: ""}
	log, logs := logger.NewObserved("warn")
	rec := &models.ContentRecord{ID: 3, Body: words(50)}

	result := NewScorer(aug, log).Score(context.Background(), rec, &models.SEOMetadata{})

	assert.Equal(t, 1, aug.calls)
	assert.Equal(t, words(50), rec.Body)
	assert.False(t, rec.Augmented)
	assert.Equal(t, 20, result.Score)
	assert.Contains(t, result.Issues.Critical, "Content is too short (less than 300 words)")
	assert.Equal(t, 1, logs.FilterMessage("Could not augment short content, scoring original body").Len())
}

func TestScoreSkipsAugmentationForLongOrAugmentedContent(t *testing.T) {
	aug := &stubAugmenter{replacement: words(1000)}
	scorer := NewScorer(aug, nil)

	long := &models.ContentRecord{Body: words(300)}
	scorer.Score(context.Background(), long, &models.SEOMetadata{})

	already := &models.ContentRecord{Body: words(10), Augmented: true}
	scorer.Score(context.Background(), already, &models.SEOMetadata{})

	assert.Equal(t, 0, aug.calls)
	assert.Equal(t, words(10), already.Body)
}

func TestScoreWithoutAugmenter(t *testing.T) {
	rec := &models.ContentRecord{Body: words(50)}
	result := NewScorer(nil, nil).Score(context.Background(), rec, &models.SEOMetadata{})
	assert.Equal(t, 20, result.Score)
}

func TestScoreFaultYieldsZeroWithCriticalIssue(t *testing.T) {
	log, logs := logger.NewObserved("error")
	rec := &models.ContentRecord{ID: 9, Body: words(400)}

	result := NewScorer(nil, log).Score(context.Background(), rec, nil)

	assert.Equal(t, 0, result.Score)
	require.Len(t, result.Issues.Critical, 1)
	assert.True(t, strings.HasPrefix(result.Issues.Critical[0], "Error calculating score: "))
	assert.Empty(t, result.Issues.Important)
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, 1, logs.FilterMessage("SEO scoring failed").Len())
}

func TestGradeBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"}, {79, "C"},
		{70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %d", tt.score)
	}
}

func TestRulesTable(t *testing.T) {
	total := 0
	for _, rule := range Rules {
		total += rule.Deduction
		assert.NotEmpty(t, rule.Message)
		assert.NotNil(t, rule.Applies)
	}
	// 25 + 15 + 10 title branches never fire together
	assert.Equal(t, 115, total)

	withSuggestion := map[IssueKind]int{}
	for _, rule := range Rules {
		if rule.Suggestion != nil {
			withSuggestion[rule.Kind] = rule.Suggestion.Priority
		}
	}
	assert.Equal(t, map[IssueKind]int{
		IssueTitleMissing:    1,
		IssueTitleTooLong:    1,
		IssueTitleTooShort:   1,
		IssueContentTooShort: 1,
		IssueNoInternalLinks: 2,
		IssueNoViewport:      1,
		IssueNoSchemaMarkup:  3,
	}, withSuggestion)
}
