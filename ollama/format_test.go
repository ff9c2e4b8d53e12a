package ollama

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "markdown heading keeps its level",
			input:    "### Setting Up",
			contains: []string{`<h3 class="section-title">Setting Up</h3>`},
		},
		{
			name:     "deep heading is clamped",
			input:    "######## Deep",
			contains: []string{`<h6 class="section-title">Deep</h6>`},
		},
		{
			name:  "bullet list gets a section heading",
			input: "- Fast\n* Cheap",
			contains: []string{
				`<h2 class="section-heading">Introduction</h2>`,
				`<ul class="feature-list">`,
				`<li class="list-item">Fast</li>`,
				`<li class="list-item">Cheap</li>`,
			},
		},
		{
			name:  "ordered list",
			input: "1. Install\n2. Configure",
			contains: []string{
				`<ol class="step-list">`,
				`<li class="step-item">Install</li>`,
				`<li class="step-item">Configure</li>`,
			},
		},
		{
			name:     "quote lines are joined",
			input:    "> Cache early.\n> Cache often.",
			contains: []string{`<blockquote class="expert-quote">Cache early. Cache often.</blockquote>`},
		},
		{
			name:  "note block",
			input: "Tip: purge on deploy",
			contains: []string{
				`<h3 class="section-heading">Introduction</h3>`,
				`<div class="important-note">Tip: purge on deploy</div>`,
			},
		},
		{
			name:  "paragraph splits into sentences",
			input: "Edge nodes cache pages. Origins rest\nmore often. Done!",
			contains: []string{
				`<p class="content-paragraph">Edge nodes cache pages.</p>`,
				`<p class="content-paragraph">Origins rest more often.</p>`,
				`<p class="content-paragraph">Done!</p>`,
			},
		},
		{
			name:     "markup passes through",
			input:    "<section><p>kept</p></section>",
			contains: []string{"<section><p>kept</p></section>"},
			excludes: []string{"section-heading"},
		},
		{
			name:     "links and emphasis",
			input:    "Read the **full** [guide](https://example.com/guide)",
			contains: []string{`Read the full <a href="https://example.com/guide">guide</a>.`},
			excludes: []string{"**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Format(tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestFormatSectionHeadingsAdvance(t *testing.T) {
	input := "One. Two. Three.\n\nFour.\n\n- item\n\nFive."
	out := Format(input)

	intro := strings.Index(out, "Introduction")
	keyPoints := strings.Index(out, "Key Points")
	benefits := strings.Index(out, "Benefits and Features")

	assert.True(t, intro >= 0 && intro < strings.Index(out, "One."))
	assert.True(t, keyPoints > strings.Index(out, "Three.") && keyPoints < strings.Index(out, "Four."),
		"a heading follows every third paragraph")
	assert.True(t, benefits > strings.Index(out, "Four.") && benefits < strings.Index(out, "item"))
	assert.NotContains(t, out, "How to Use")
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Format(" \n\n \n"))
}

func TestOptimize(t *testing.T) {
	t.Run("images get lazy loading and alt", func(t *testing.T) {
		out := Optimize(`<p>x</p><img src="/a.png"><img src="/b.png" alt="kept" loading="eager">`, "Edge Caching")

		assert.Contains(t, out, `<img src="/a.png" loading="lazy" alt="Edge Caching"/>`)
		assert.Contains(t, out, `<img src="/b.png" alt="kept" loading="eager"/>`)
	})

	t.Run("content without images is unchanged", func(t *testing.T) {
		in := "<p>no pictures</p>"
		assert.Equal(t, in, Optimize(in, "x"))
	})
}
