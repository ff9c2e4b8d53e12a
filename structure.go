package seoaudit

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
)

// MobileBodyThreshold is the body length, in characters, above which a missing
// viewport tag makes content not mobile friendly. Shorter bodies always pass.
const MobileBodyThreshold = 1000

var (
	anchorHrefRe = regexp.MustCompile(`(?i)<a[^>]*href=["'](.*?)["'][^>]*>`)
	itemtypeRe   = regexp.MustCompile(`(?i)itemtype=["'](.*?)["']`)
	viewportRe   = regexp.MustCompile(`(?i)<meta[^>]+viewport[^>]+>`)
	canonicalRe  = regexp.MustCompile(`(?i)<link[^>]+rel=["'](canonical)["'][^>]*>`)
)

// Analyzer extracts structural facts from content markup
type Analyzer struct {
	log logger.Logger
}

// NewAnalyzer creates an Analyzer reporting faults to log
func NewAnalyzer(log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Analyzer{log: log}
}

// DefaultFacts returns the facts reported when analysis cannot complete
func DefaultFacts() models.StructuralFacts {
	return models.StructuralFacts{
		InternalLinks:  []string{},
		ExternalLinks:  []string{},
		MobileFriendly: true,
	}
}

// Analyze inspects body and never fails: a fault is logged and yields DefaultFacts
func (a *Analyzer) Analyze(body string) (facts models.StructuralFacts) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Structure analysis failed", logger.String("fault", fmt.Sprint(r)))
			facts = DefaultFacts()
		}
	}()
	return analyze(body)
}

func analyze(body string) models.StructuralFacts {
	facts := DefaultFacts()

	for _, m := range anchorHrefRe.FindAllStringSubmatch(body, -1) {
		href := m[1]
		if isExternalHref(href) {
			facts.ExternalLinks = append(facts.ExternalLinks, href)
		} else {
			facts.InternalLinks = append(facts.InternalLinks, href)
		}
	}

	facts.HasSchemaMarkup = itemtypeRe.MatchString(body)
	facts.HasMetaViewport = viewportRe.MatchString(body)
	facts.HasCanonical = canonicalRe.MatchString(body)

	if utf8.RuneCountInString(body) > MobileBodyThreshold && !facts.HasMetaViewport {
		facts.MobileFriendly = false
	}

	return facts
}

// "http" also covers "https"
func isExternalHref(href string) bool {
	return strings.HasPrefix(href, "http") || strings.HasPrefix(href, "//")
}
