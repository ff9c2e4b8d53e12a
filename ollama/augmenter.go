package ollama

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/zombar/seoaudit/keywords"
	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/metrics"
)

const (
	DefaultTargetWords = 1000

	// MaxAverageSentenceWords is the readability limit of generated content
	MaxAverageSentenceWords = 20
	// MinUniqueWordRatio is the vocabulary diversity limit of generated content
	MinUniqueWordRatio = 0.7
)

// ErrLowQuality is returned when generated content fails the quality checks
var ErrLowQuality = errors.New("generated content failed quality checks")

var blankLinesRe = regexp.MustCompile(`\n\s*\n`)

// Config holds the Ollama connection settings
type Config struct {
	BaseURL      string        `yaml:"base_url" env:"OLLAMA_URL"`
	Model        string        `yaml:"model" env:"OLLAMA_MODEL"`
	Timeout      time.Duration `yaml:"timeout" env:"OLLAMA_TIMEOUT"`
	RateLimitRPS float64       `yaml:"rate_limit_rps" env:"OLLAMA_RATE_LIMIT_RPS"`
	Burst        int           `yaml:"burst" env:"OLLAMA_BURST"`
}

// DefaultConfig returns the default Ollama settings
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		Timeout:      DefaultTimeout,
		RateLimitRPS: 1,
		Burst:        1,
	}
}

// AugmentConfig controls content augmentation
type AugmentConfig struct {
	Enabled     bool `yaml:"enabled" env:"AUGMENT_ENABLED"`
	TargetWords int  `yaml:"target_words" env:"AUGMENT_TARGET_WORDS"`
	QualityGate bool `yaml:"quality_gate" env:"AUGMENT_QUALITY_GATE"`
}

// DefaultAugmentConfig returns the default augmentation settings
func DefaultAugmentConfig() AugmentConfig {
	return AugmentConfig{
		Enabled:     true,
		TargetWords: DefaultTargetWords,
		QualityGate: true,
	}
}

// TextGenerator produces text for a prompt
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Augmenter lengthens short content with generated text
type Augmenter struct {
	generator TextGenerator
	limiter   *rate.Limiter
	timeout   time.Duration
	target    int
	gate      bool
	metrics   *metrics.Metrics
	log       logger.Logger
}

// NewAugmenter creates an Augmenter. A non-positive rate disables rate limiting.
func NewAugmenter(generator TextGenerator, cfg Config, augment AugmentConfig, m *metrics.Metrics, log logger.Logger) *Augmenter {
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Limit(cfg.RateLimitRPS)
	if cfg.RateLimitRPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	target := augment.TargetWords
	if target <= 0 {
		target = DefaultTargetWords
	}

	return &Augmenter{
		generator: generator,
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   timeout,
		target:    target,
		gate:      augment.QualityGate,
		metrics:   m,
		log:       log,
	}
}

// Augment returns a longer version of body, or "" when none could be produced
func (a *Augmenter) Augment(ctx context.Context, body, title, description string) string {
	if len(strings.Fields(body)) >= a.target {
		return ""
	}

	if err := a.limiter.Wait(ctx); err != nil {
		a.log.Warn("Augmentation rate limit wait aborted", logger.Error(err))
		a.metrics.RecordAugment(metrics.AugmentError)
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	response, err := a.generator.Generate(ctx, augmentPrompt(body, title, description, a.target))
	if err != nil {
		a.log.Warn("Content generation failed",
			logger.String("title", title),
			logger.Error(err))
		a.metrics.RecordAugment(metrics.AugmentError)
		return ""
	}

	generated := Optimize(Format(stripMarkdownCodeBlocks(response)), title)
	if generated == "" {
		a.log.Warn("Content generation returned no text", logger.String("title", title))
		a.metrics.RecordAugment(metrics.AugmentError)
		return ""
	}

	combined := Combine(body, generated, a.target)
	if a.gate {
		if err := CheckQuality(combined, a.target); err != nil {
			a.log.Warn("Generated content rejected",
				logger.String("title", title),
				logger.Error(err))
			a.metrics.RecordAugment(metrics.AugmentRejected)
			return ""
		}
	}

	a.log.Info("Content generated",
		logger.String("title", title),
		logger.Int("words", len(strings.Fields(combined))),
		logger.Duration("duration", time.Since(start)))
	a.metrics.RecordAugment(metrics.AugmentAccepted)
	return combined
}

func augmentPrompt(body, title, description string, target int) string {
	return fmt.Sprintf(`Write a comprehensive, SEO-optimized article about "%s" of at least %d words.

Structure it as HTML with:
- an introduction that opens with an engaging fact or question and states what readers will learn
- main sections with <h2> headings covering key concepts, real-world applications and expert insights
- an advanced topics section on techniques, common challenges and industry standards
- a practical guide with implementation steps, success metrics and maintenance tips
- a conclusion with a summary, future outlook and a call to action

Requirements:
- wrap paragraphs in <p>, use <ul> or <ol> lists, include at least one <blockquote> expert quote
- include internal and external <a> links
- keep sentences short, at most 20 words on average, and avoid repeating words
- use the target keywords naturally
- return only the article markup, without commentary

Current content:
%s

Description:
%s`, title, target, body, description)
}

// Combine appends the generated sentences missing from current. When the
// result is still shorter than target words the generated text is used alone.
func Combine(current, generated string, target int) string {
	seen := make(map[string]struct{})
	for _, s := range Sentences(current) {
		seen[s] = struct{}{}
	}

	var b strings.Builder
	b.WriteString(current)
	for _, s := range Sentences(generated) {
		if _, ok := seen[s]; ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(s)
	}

	combined := b.String()
	if len(strings.Fields(combined)) < target {
		combined = generated
	}

	return strings.TrimSpace(blankLinesRe.ReplaceAllString(combined, "\n\n"))
}

// Sentences splits text after '.', '!' or '?' when followed by whitespace or the end of text
func Sentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) {
			following, _ := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(following) {
				continue
			}
		}
		if s := strings.TrimSpace(text[start:next]); s != "" {
			sentences = append(sentences, s)
		}
		start = next
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

var requiredMarkup = []struct {
	selector string
	name     string
}{
	{"h1, h2, h3, h4, h5, h6", "heading"},
	{"p", "paragraph"},
	{"ul, ol", "list"},
	{"blockquote", "quote"},
	{"a", "link"},
}

// CheckQuality verifies length, readability, vocabulary diversity and markup
// structure of content. Failures wrap ErrLowQuality.
func CheckQuality(content string, target int) error {
	words := len(strings.Fields(content))
	if words < target {
		return fmt.Errorf("%w: %d words, want at least %d", ErrLowQuality, words, target)
	}

	sentences := Sentences(content)
	if len(sentences) == 0 {
		return fmt.Errorf("%w: no sentences", ErrLowQuality)
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.Fields(s))
	}
	if avg := float64(total) / float64(len(sentences)); avg > MaxAverageSentenceWords {
		return fmt.Errorf("%w: average sentence length %.1f words", ErrLowQuality, avg)
	}

	tokens := keywords.Tokenize(strings.ToLower(content))
	if len(tokens) == 0 {
		return fmt.Errorf("%w: no words", ErrLowQuality)
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	if ratio := float64(len(unique)) / float64(len(tokens)); ratio < MinUniqueWordRatio {
		return fmt.Errorf("%w: unique word ratio %.2f", ErrLowQuality, ratio)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse content: %w", err)
	}
	for _, m := range requiredMarkup {
		if doc.Find(m.selector).Length() == 0 {
			return fmt.Errorf("%w: no %s", ErrLowQuality, m.name)
		}
	}

	return nil
}
