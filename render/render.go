// Package render produces the HTML documents written alongside a batch report.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
)

// UntitledTitle is shown when a record has no title
const UntitledTitle = "Untitled"

// Config holds renderer settings
type Config struct {
	OutputDir string
	BaseURL   string
}

// Page is the data bound to the page and article templates
type Page struct {
	Title        string
	MetaTitle    string
	Description  string
	Author       string
	Keywords     []string
	CanonicalURL string
	Published    string
}

// Resource is an outbound link listed by a generated article
type Resource struct {
	URL  string
	Text string
}

// ArticleData is the data of a generated long-form article
type ArticleData struct {
	Page
	Contents  []string
	Resources []Resource
}

// Renderer renders and saves per-record HTML pages
type Renderer struct {
	config Config
	log    logger.Logger
	now    func() time.Time
}

// NewRenderer creates a Renderer
func NewRenderer(config Config, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Renderer{config: config, log: log, now: time.Now}
}

// CanonicalURL returns the public URL of a content record
func CanonicalURL(baseURL string, id int64) string {
	return fmt.Sprintf("%s/content/%d", strings.TrimRight(baseURL, "/"), id)
}

// Article renders a generated long-form article
func Article(data ArticleData) (string, error) {
	if len(data.Contents) == 0 {
		return "", fmt.Errorf("article has no sections")
	}
	var buf bytes.Buffer
	if err := articleTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render article: %w", err)
	}
	return buf.String(), nil
}

// Render produces a self-contained HTML document for a record
func (r *Renderer) Render(rec models.ContentRecord, title, description string, keywords []string) (string, error) {
	if title == "" {
		title = UntitledTitle
	}
	if keywords == nil {
		keywords = []string{}
	}

	page := Page{
		Title:        title,
		MetaTitle:    title,
		Description:  description,
		Author:       rec.AuthorOrDefault(),
		Keywords:     keywords,
		CanonicalURL: CanonicalURL(r.config.BaseURL, rec.ID),
		Published:    r.now().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("failed to render content %d: %w", rec.ID, err)
	}
	return buf.String(), nil
}

// Save writes the document to {output_dir}/content_{id}.html and returns the path
func (r *Renderer) Save(id int64, document string) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(r.config.OutputDir, fmt.Sprintf("content_%d.html", id))
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.log.Info("HTML file saved", logger.Int64("content_id", id), logger.String("path", path))
	return path, nil
}

// RenderAndSave renders a record and saves it. The error is logged by the caller.
func (r *Renderer) RenderAndSave(rec models.ContentRecord, title, description string, keywords []string) (string, error) {
	document, err := r.Render(rec, title, description, keywords)
	if err != nil {
		return "", err
	}
	return r.Save(rec.ID, document)
}
