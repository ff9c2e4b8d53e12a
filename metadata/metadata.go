// Package metadata generates the SEO metadata and long-form article for a content record.
package metadata

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zombar/seoaudit/keywords"
	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
	"github.com/zombar/seoaudit/render"
)

const (
	// TitleMinLength is the length under which a title gets a suffix
	TitleMinLength = 30
	// TitleMaxLength is the longest meta title kept without truncation
	TitleMaxLength = 60
	// DescriptionMaxLength bounds the meta description
	DescriptionMaxLength = 160

	GenericTitleSuffix = "Complete Guide and Best Practices"
	TwitterCard        = "summary"

	ViewportMeta = `<meta name="viewport" content="width=device-width, initial-scale=1.0, maximum-scale=5.0">`
	CharsetMeta  = `<meta charset="UTF-8">`
	RobotsMeta   = `<meta name="robots" content="index, follow">`
)

// ResourceBaseURL hosts the further-reading links of generated articles
var ResourceBaseURL = "https://example.com"

// Config describes the publishing site
type Config struct {
	BaseURL      string `yaml:"base_url" env:"SITE_BASE_URL"`
	Organization string `yaml:"organization" env:"SITE_ORGANIZATION"`
	LogoURL      string `yaml:"logo_url" env:"SITE_LOGO_URL"`
}

// DefaultConfig returns placeholder site settings
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://yourdomain.com",
		Organization: "Your Organization Name",
		LogoURL:      "https://yourdomain.com/logo.png",
	}
}

// KeywordExtractor returns the k most significant words of a text
type KeywordExtractor interface {
	Extract(text string, k int) []string
}

// Generator builds SEOMetadata for content records
type Generator struct {
	config   Config
	keywords KeywordExtractor
	log      logger.Logger
	now      func() time.Time
}

// NewGenerator creates a Generator
func NewGenerator(config Config, extractor KeywordExtractor, log logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		config:   config,
		keywords: extractor,
		log:      log,
		now:      time.Now,
	}
}

// Empty is the metadata of a record whose generation failed
func Empty() models.SEOMetadata {
	return models.SEOMetadata{
		Keywords:    []string{},
		TwitterCard: TwitterCard,
		SchemaData:  map[string]any{},
	}
}

// MetaTitle pads a short title with the category, or a generic suffix, and
// truncates the result to TitleMaxLength characters
func MetaTitle(title, category string) string {
	meta := title
	if utf8.RuneCountInString(meta) < TitleMinLength {
		suffix := category
		if suffix == "" {
			suffix = GenericTitleSuffix
		}
		meta = meta + " - " + suffix
	}
	if utf8.RuneCountInString(meta) > TitleMaxLength {
		meta = string([]rune(meta)[:TitleMaxLength-3]) + "..."
	}
	return meta
}

// FallbackDescription is used when a record has no description
func FallbackDescription(title string) string {
	return fmt.Sprintf("Learn about %s. Discover insights, tips, and information about this topic.", title)
}

// Generate builds the metadata of rec. Any failure yields Empty().
func (g *Generator) Generate(rec models.ContentRecord) (meta models.SEOMetadata) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("Metadata generation failed",
				logger.Int64("content_id", rec.ID),
				logger.Any("panic", r))
			meta = Empty()
		}
	}()

	meta, err := g.generate(rec)
	if err != nil {
		g.log.Error("Metadata generation failed",
			logger.Int64("content_id", rec.ID),
			logger.Error(err))
		return Empty()
	}
	return meta
}

func (g *Generator) generate(rec models.ContentRecord) (models.SEOMetadata, error) {
	title := MetaTitle(rec.Title, rec.Category)

	description := rec.Description
	if description == "" {
		description = FallbackDescription(rec.Title)
	}

	kw := g.keywords.Extract(description, keywords.DefaultCount)
	if kw == nil {
		kw = []string{}
	}

	canonical := render.CanonicalURL(g.config.BaseURL, rec.ID)
	published := g.now().Format(time.RFC3339)
	author := rec.AuthorOrDefault()

	enhanced, err := render.Article(render.ArticleData{
		Page: render.Page{
			Title:        rec.Title,
			MetaTitle:    title,
			Description:  description,
			Author:       author,
			Keywords:     kw,
			CanonicalURL: canonical,
			Published:    published,
		},
		Contents:  tableOfContents(rec.Title),
		Resources: resources(rec.Title),
	})
	if err != nil {
		return models.SEOMetadata{}, err
	}

	metaDescription := description
	if utf8.RuneCountInString(metaDescription) > DescriptionMaxLength {
		metaDescription = string([]rune(metaDescription)[:DescriptionMaxLength])
	}

	return models.SEOMetadata{
		MetaTitle:          title,
		MetaDescription:    metaDescription,
		MetaKeywords:       strings.Join(kw, ", "),
		Keywords:           kw,
		OGTitle:            title,
		OGDescription:      description,
		TwitterCard:        TwitterCard,
		TwitterTitle:       title,
		TwitterDescription: description,
		CanonicalURL:       canonical,
		ViewportMeta:       ViewportMeta,
		CharsetMeta:        CharsetMeta,
		RobotsMeta:         RobotsMeta,
		CanonicalMeta:      fmt.Sprintf(`<link rel="canonical" href="%s">`, canonical),
		SchemaData:         g.schema(title, description, kw, published, author),
		EnhancedContent:    enhanced,
	}, nil
}

// schema returns schema.org Article JSON-LD
func (g *Generator) schema(headline, description string, kw []string, published, author string) map[string]any {
	return map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      headline,
		"description":   description,
		"keywords":      kw,
		"datePublished": published,
		"author": map[string]any{
			"@type": "Person",
			"name":  author,
		},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  g.config.Organization,
			"logo": map[string]any{
				"@type": "ImageObject",
				"url":   g.config.LogoURL,
			},
		},
	}
}

func tableOfContents(title string) []string {
	return []string{
		"Introduction to " + title,
		"Key Features and Benefits",
		"How to Get Started",
		"Best Practices and Tips",
		"Common Questions and Answers",
		"Case Studies and Examples",
		"Additional Resources",
		"Conclusion",
	}
}

func resources(title string) []render.Resource {
	slug := render.Anchor(title)
	return []render.Resource{
		{URL: ResourceBaseURL + "/" + slug, Text: "Learn more about " + title},
		{URL: ResourceBaseURL + "/resources/" + slug, Text: "Additional resources for " + title},
		{URL: ResourceBaseURL + "/guide/" + slug, Text: "Complete guide to " + title},
	}
}
