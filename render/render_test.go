package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/seoaudit/models"
)

func parseDoc(t *testing.T, document string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	require.NoError(t, err)
	return doc
}

func TestRender(t *testing.T) {
	r := NewRenderer(Config{OutputDir: t.TempDir(), BaseURL: "https://example.com/"}, nil)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := models.ContentRecord{ID: 42}
	document, err := r.Render(rec, "Tom & Jerry", "A <b>classic</b> cartoon", []string{"cartoon", "classic"})
	require.NoError(t, err)

	doc := parseDoc(t, document)
	assert.Equal(t, "Tom & Jerry", doc.Find("title").Text())
	assert.Equal(t, "Tom & Jerry", doc.Find("h1[itemprop=name]").Text())

	canonical, _ := doc.Find(`link[rel=canonical]`).Attr("href")
	assert.Equal(t, "https://example.com/content/42", canonical)

	keywords, _ := doc.Find(`meta[name=keywords]`).Attr("content")
	assert.Equal(t, "cartoon, classic", keywords)

	author, _ := doc.Find(`meta[itemprop=author]`).Attr("content")
	assert.Equal(t, models.DefaultAuthor, author)

	published, _ := doc.Find(`meta[itemprop=datePublished]`).Attr("content")
	assert.Equal(t, "2026-01-02T03:04:05Z", published)

	assert.Equal(t, 1, doc.Find(`meta[name=viewport]`).Length())
	assert.Equal(t, 1, doc.Find(`article[itemtype="https://schema.org/Article"]`).Length())
	assert.Equal(t, "A <b>classic</b> cartoon", doc.Find("#introduction p").Text(), "description is escaped, not injected")
	assert.Contains(t, doc.Find("style").Text(), ".table-of-contents")
}

func TestRenderUntitled(t *testing.T) {
	r := NewRenderer(Config{}, nil)
	document, err := r.Render(models.ContentRecord{ID: 1, Author: "Sara"}, "", "", nil)
	require.NoError(t, err)

	doc := parseDoc(t, document)
	assert.Equal(t, UntitledTitle, doc.Find("title").Text())
	author, _ := doc.Find(`meta[itemprop=author]`).Attr("content")
	assert.Equal(t, "Sara", author)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	r := NewRenderer(Config{OutputDir: dir}, nil)

	path, err := r.RenderAndSave(models.ContentRecord{ID: 7}, "Title", "Description", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "content_7.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestSaveFailsOnUnwritableDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	r := NewRenderer(Config{OutputDir: file}, nil)
	_, err := r.Save(1, "<html></html>")
	assert.Error(t, err)
}

func TestArticle(t *testing.T) {
	data := ArticleData{
		Page: Page{
			Title:        "Go Concurrency",
			MetaTitle:    "Go Concurrency - Complete Guide and Best Practices",
			Description:  "Channels and goroutines",
			Author:       "Anonymous",
			Keywords:     []string{"channels", "goroutines"},
			CanonicalURL: "https://example.com/content/3",
		},
		Contents:  []string{"Introduction to Go Concurrency", "Conclusion"},
		Resources: []Resource{{URL: "https://example.com/go-concurrency", Text: "Learn more about Go Concurrency"}},
	}

	document, err := Article(data)
	require.NoError(t, err)

	doc := parseDoc(t, document)
	toc := doc.Find(".table-of-contents li a")
	require.Equal(t, 2, toc.Length())
	href, _ := toc.First().Attr("href")
	assert.Equal(t, "#introduction-to-go-concurrency", href)

	assert.Equal(t, 1, doc.Find("section#introduction-to-go-concurrency").Length())
	assert.Equal(t, 8, doc.Find("div[itemprop=articleBody] > section").Length())
	assert.Equal(t, 1, doc.Find(`a[rel=nofollow][href="https://example.com/go-concurrency"]`).Length())
}

func TestArticleWithoutSections(t *testing.T) {
	_, err := Article(ArticleData{})
	assert.Error(t, err)
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "how-to-get-started", Anchor("How to Get Started"))
	assert.Equal(t, "introduction", Anchor("Introduction"))
}
