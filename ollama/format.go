package ollama

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SectionHeadings are inserted, in order, before lists, notes and every third paragraph
var SectionHeadings = []string{
	"Introduction",
	"Key Points",
	"Benefits and Features",
	"How to Use",
	"Best Practices",
	"Frequently Asked Questions",
	"Case Studies",
	"Further Resources",
	"Conclusion",
}

var (
	orderedItemRe  = regexp.MustCompile(`^\d+\.\s*`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	notePrefixes   = []string{"note:", "tip:", "important:", "warning:"}
)

// Format turns a plain-text or Markdown reply into article markup. Blocks are
// separated by blank lines; a block that already starts with a tag is kept as is.
func Format(content string) string {
	var b strings.Builder
	section := 0
	paragraphs := 0

	heading := func(tag string) {
		if section < len(SectionHeadings) {
			fmt.Fprintf(&b, "<%s class=\"section-heading\">%s</%s>\n", tag, SectionHeadings[section], tag)
			section++
		}
	}

	for _, block := range blankLinesRe.Split(content, -1) {
		block = strings.TrimSpace(block)
		switch {
		case block == "":
			continue

		case strings.HasPrefix(block, "<"):
			b.WriteString(block)
			b.WriteString("\n")

		case strings.HasPrefix(block, "#"):
			level := len(block) - len(strings.TrimLeft(block, "#"))
			level = min(max(level, 1), 6)
			title := inline(strings.TrimSpace(strings.TrimLeft(block, "#")))
			fmt.Fprintf(&b, "<h%d class=\"section-title\">%s</h%d>\n", level, title, level)

		case strings.HasPrefix(block, "- "), strings.HasPrefix(block, "* "):
			heading("h2")
			b.WriteString("<ul class=\"feature-list\">\n")
			for _, item := range lines(block) {
				item = strings.TrimSpace(strings.TrimLeft(item, "-* "))
				fmt.Fprintf(&b, "<li class=\"list-item\">%s</li>\n", inline(item))
			}
			b.WriteString("</ul>\n")

		case strings.HasPrefix(block, ">"):
			var quote []string
			for _, line := range lines(block) {
				quote = append(quote, strings.TrimSpace(strings.TrimPrefix(line, ">")))
			}
			fmt.Fprintf(&b, "<blockquote class=\"expert-quote\">%s</blockquote>\n", inline(strings.Join(quote, " ")))

		case orderedItemRe.MatchString(block):
			heading("h2")
			b.WriteString("<ol class=\"step-list\">\n")
			for _, item := range lines(block) {
				fmt.Fprintf(&b, "<li class=\"step-item\">%s</li>\n", inline(orderedItemRe.ReplaceAllString(item, "")))
			}
			b.WriteString("</ol>\n")

		case isNote(block):
			heading("h3")
			fmt.Fprintf(&b, "<div class=\"important-note\">%s</div>\n", inline(block))

		default:
			if paragraphs%3 == 0 {
				heading("h2")
			}
			text := strings.Join(strings.Fields(block), " ")
			for _, p := range strings.Split(text, ". ") {
				p = strings.TrimSpace(p)
				if p == "" {
					continue
				}
				if !endsSentence(p) {
					p += "."
				}
				fmt.Fprintf(&b, "<p class=\"content-paragraph\">%s</p>\n", inline(p))
				paragraphs++
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// Optimize gives images lazy loading and a fallback alt text
func Optimize(content, alt string) string {
	if !strings.Contains(content, "<img") {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if _, ok := img.Attr("loading"); !ok {
			img.SetAttr("loading", "lazy")
		}
		if v, ok := img.Attr("alt"); !ok || strings.TrimSpace(v) == "" {
			img.SetAttr("alt", alt)
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}

func lines(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func endsSentence(s string) bool {
	for _, suffix := range []string{".", "!", "?", ":"} {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func isNote(block string) bool {
	lower := strings.ToLower(block)
	for _, prefix := range notePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// inline converts Markdown links and strips emphasis markers
func inline(text string) string {
	text = markdownLinkRe.ReplaceAllString(text, `<a href="$2">$1</a>`)
	return strings.NewReplacer("**", "", "__", "").Replace(text)
}
