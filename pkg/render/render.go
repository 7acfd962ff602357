package render

import (
	"fmt"
	"io"
	"text/template"

	"webring/pkg/domain"
)

// context is what templates see: {{range .Articles}} ... {{end}}.
type context struct {
	Articles []domain.Article
}

// Parse compiles templateText. Called before any fetching so a broken
// template fails the run cheaply.
func Parse(templateText string) (*template.Template, error) {
	tmpl, err := template.New("webring").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return tmpl, nil
}

// Render executes tmpl with the article list and writes the fragment to w.
// Summaries were already sanitized to plain text during extraction, which is
// why text/template and not html/template: re-escaping would mangle them.
func Render(w io.Writer, tmpl *template.Template, arts []domain.Article) error {
	if err := tmpl.Execute(w, context{Articles: arts}); err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}
	return nil
}
