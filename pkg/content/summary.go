package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Sanitize reduces an HTML fragment to plain text: markup stripped, entities
// decoded, script and style contents dropped, whitespace collapsed. Feed
// summaries arrive as arbitrary markup and must be safe to inline into a
// rendered page fragment.
func Sanitize(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		// Not parseable as HTML at all; treat the raw text as the summary.
		return collapse(fragment)
	}
	doc.Find("script, style").Remove()
	return collapse(doc.Text())
}

// ExtractText pulls the main readable text out of a full HTML document. Some
// feeds ship whole article pages in their content element; readability does
// a far better job on those than naive tag stripping.
func ExtractText(htmlContent string) string {
	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err != nil {
		return ""
	}
	return collapse(article.TextContent)
}

// Truncate shortens s to at most maxRunes runes, appending an ellipsis when
// anything was cut. Counting runes keeps multi-byte text intact.
func Truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + "…"
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
