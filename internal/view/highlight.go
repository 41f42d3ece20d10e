package view

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// highlightPolicy keeps only the markup Highlight itself produces.
var highlightPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("mark")
	p.AllowAttrs("class").OnElements("mark")
	return p
}()

// descriptionPolicy sanitises rendered product descriptions.
var descriptionPolicy = bluemonday.UGCPolicy()

// Highlight wraps every case-insensitive occurrence of query inside text with
// a highlight mark. The input is escaped first, so product data can never
// smuggle markup through; the result is then run through a strict policy.
func Highlight(text, query string) template.HTML {
	if text == "" || strings.TrimSpace(query) == "" {
		return template.HTML(html.EscapeString(text))
	}

	needle := []rune(strings.ToLower(query))
	var b strings.Builder
	start := 0
	for start < len(text) {
		from, to, ok := foldIndex(text[start:], needle)
		if !ok {
			break
		}
		b.WriteString(html.EscapeString(text[start : start+from]))
		b.WriteString(`<mark class="search-highlight">`)
		b.WriteString(html.EscapeString(text[start+from : start+to]))
		b.WriteString(`</mark>`)
		start += to
	}
	b.WriteString(html.EscapeString(text[start:]))
	return template.HTML(highlightPolicy.Sanitize(b.String()))
}

// foldIndex locates the first run of runes in text that lowers to needle and
// returns its byte bounds. Matching rune by rune keeps the bounds on rune
// boundaries even when lowering changes a rune's encoded length.
func foldIndex(text string, needle []rune) (int, int, bool) {
	if len(needle) == 0 {
		return 0, 0, false
	}
	for i := range text {
		end := i
		matched := true
		for _, want := range needle {
			r, size := utf8.DecodeRuneInString(text[end:])
			if size == 0 || unicode.ToLower(r) != want {
				matched = false
				break
			}
			end += size
		}
		if matched {
			return i, end, true
		}
	}
	return 0, 0, false
}

// RenderDescription converts a markdown product description to sanitised
// HTML. Plain-text descriptions pass through as a paragraph.
func RenderDescription(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(descriptionPolicy.Sanitize(buf.String())), nil
}
