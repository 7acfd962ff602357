package content

import (
	"strings"
	"testing"
)

func TestSanitizeStripsMarkup(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{
			"plain tags",
			`<p>Hello <b>world</b></p>`,
			"Hello world",
		},
		{
			"entities decoded",
			`Fish &amp; chips &lt;tasty&gt;`,
			"Fish & chips <tasty>",
		},
		{
			"script dropped",
			`<p>Visible</p><script>alert("nope")</script>`,
			"Visible",
		},
		{
			"style dropped",
			`<style>p { color: red }</style><p>Styled</p>`,
			"Styled",
		},
		{
			"whitespace collapsed",
			"<p>one\n\n two   three</p>",
			"one two three",
		},
		{
			"already plain",
			"just text",
			"just text",
		},
		{
			"empty",
			"",
			"",
		},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("%s: Sanitize(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestExtractText(t *testing.T) {
	doc := `<!DOCTYPE html>
<html>
<head><title>A post</title></head>
<body>
<nav>Home | About | Archive</nav>
<article>
<h1>A post</h1>
<p>This is the main body of the article. It carries the actual prose that a
reader cares about, several sentences of it, so the readable-content
extraction has something real to find.</p>
<p>A second paragraph keeps the extraction honest and gives the scorer more
than a single block to work with.</p>
</article>
</body>
</html>`

	got := ExtractText(doc)
	if !strings.Contains(got, "main body of the article") {
		t.Errorf("Expected extracted text to contain the article prose, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		name, in string
		max      int
		want     string
	}{
		{"short enough", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello…"},
		{"multibyte safe", "héllo wörld", 7, "héllo w…"},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("%s: Truncate(%q, %d) = %q, want %q", tc.name, tc.in, tc.max, got, tc.want)
		}
	}
}
