package view

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHighlightWrapsMatches(t *testing.T) {
	got := string(Highlight("Гемы 170 + бонусные гемы", "гемы"))
	want := `<mark class="search-highlight">Гемы</mark> 170 + бонусные <mark class="search-highlight">гемы</mark>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHighlightEscapesInput(t *testing.T) {
	got := string(Highlight(`<script>alert("x")</script> гемы`, "гемы"))
	if strings.Contains(got, "<script>") {
		t.Fatalf("markup leaked through: %q", got)
	}
	if !strings.Contains(got, "<mark") {
		t.Fatalf("match not highlighted: %q", got)
	}
}

func TestHighlightWithoutQuery(t *testing.T) {
	got := string(Highlight("Гемы <b>170</b>", "  "))
	if strings.Contains(got, "<b>") {
		t.Fatalf("markup leaked through: %q", got)
	}
	if strings.Contains(got, "<mark") {
		t.Fatalf("nothing should be highlighted: %q", got)
	}
}

func TestHighlightStaysOnRuneBoundaries(t *testing.T) {
	// Lowering İ (U+0130) shrinks its byte length, so a match located in the
	// lowered text sits at a different offset than in the original.
	got := string(Highlight("İİİİİİthegems", "gems"))
	want := `İİİİİİthe<mark class="search-highlight">gems</mark>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("output is not valid UTF-8: %q", got)
	}
}

func TestHighlightMatchesFoldedRunes(t *testing.T) {
	got := string(Highlight("Straße İstanbul", "istanbul"))
	want := `Straße <mark class="search-highlight">İstanbul</mark>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHighlightQueryInsideMarkupNeverMatchesTags(t *testing.T) {
	got := string(Highlight("mark the spot", "mark"))
	if !strings.HasPrefix(got, `<mark class="search-highlight">mark</mark>`) {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRenderDescription(t *testing.T) {
	out, err := RenderDescription("**170 гемов** для Brawl Stars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "<strong>170 гемов</strong>") {
		t.Fatalf("markdown not rendered: %q", out)
	}
}

func TestRenderDescriptionSanitises(t *testing.T) {
	out, err := RenderDescription(`Гемы <script>alert("x")</script>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "<script") {
		t.Fatalf("script survived sanitisation: %q", out)
	}
}
