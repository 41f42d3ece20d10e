package nav

import (
	"errors"
	"testing"
)

func TestControllerStartsAtHome(t *testing.T) {
	c := NewController()
	snap := c.Snapshot()
	if snap.Page != PageHome {
		t.Fatalf("expected home page, got %s", snap.Page)
	}
	if snap.ActiveGame != "" || snap.ActiveSubcategory != "" {
		t.Fatalf("expected empty context, got game=%q sub=%q", snap.ActiveGame, snap.ActiveSubcategory)
	}
}

func TestOpenCategoryRequiresActiveGame(t *testing.T) {
	c := NewController()
	if err := c.OpenCategory("gems"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected ErrNoActiveGame, got %v", err)
	}

	c.OpenCatalog("brawlstars")
	if err := c.OpenCategory("gems"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := c.Snapshot()
	if snap.Page != PageCategory || snap.ActiveGame != "brawlstars" || snap.ActiveSubcategory != "gems" {
		t.Fatalf("unexpected state: %+v", snap)
	}
}

func TestOpenCatalogClearsSubcategory(t *testing.T) {
	c := NewController()
	c.OpenCatalog("brawlstars")
	if err := c.OpenCategory("gems"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.OpenCatalog("clashroyale")
	snap := c.Snapshot()
	if snap.ActiveSubcategory != "" {
		t.Fatalf("subcategory should clear on catalog switch, got %q", snap.ActiveSubcategory)
	}
	if snap.ActiveGame != "clashroyale" {
		t.Fatalf("unexpected game %q", snap.ActiveGame)
	}
}

func TestCloseCatalogClearsGameAndSubcategory(t *testing.T) {
	c := NewController()
	c.OpenCatalog("clashofclans")
	if err := c.OpenCategory("oformlenie"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.CloseCatalog()
	snap := c.Snapshot()
	if snap.Page != PageHome || snap.ActiveGame != "" || snap.ActiveSubcategory != "" {
		t.Fatalf("unexpected state after close: %+v", snap)
	}
}

func TestSearchOverlaySnapshot(t *testing.T) {
	c := NewController()
	c.OpenCatalog("brawlstars")
	c.OpenSearch()

	snap := c.Snapshot()
	if snap.Page != PageSearch || !snap.SearchOpen {
		t.Fatalf("expected search overlay in snapshot: %+v", snap)
	}
	if snap.ActiveGame != "brawlstars" {
		t.Fatalf("overlay must not disturb the page beneath, got game %q", snap.ActiveGame)
	}

	c.CloseSearch()
	snap = c.Snapshot()
	if snap.Page != PageCatalog || snap.SearchOpen {
		t.Fatalf("expected catalog page after closing search: %+v", snap)
	}
}

func TestBreadcrumbBackPrecedence(t *testing.T) {
	c := NewController()
	c.OpenCatalog("clashroyale")
	if err := c.OpenCategory("karty"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.HandleBreadcrumbBack()
	if snap := c.Snapshot(); snap.Page != PageCatalog || snap.ActiveSubcategory != "" {
		t.Fatalf("first back should land on catalog: %+v", snap)
	}

	c.HandleBreadcrumbBack()
	if snap := c.Snapshot(); snap.Page != PageHome || snap.ActiveGame != "" {
		t.Fatalf("second back should land on home: %+v", snap)
	}

	c.HandleBreadcrumbBack()
	if snap := c.Snapshot(); snap.Page != PageHome {
		t.Fatalf("back from home must stay home: %+v", snap)
	}
}

func TestBreadcrumbBackTerminatesWithinThree(t *testing.T) {
	c := NewController()
	c.OpenCatalog("brawlstars")
	if err := c.OpenCategory("gems"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.OpenSearch()

	for i := 0; i < 3; i++ {
		c.HandleBreadcrumbBack()
	}
	snap := c.Snapshot()
	if snap.Page != PageHome || snap.ActiveGame != "" || snap.ActiveSubcategory != "" {
		t.Fatalf("expected home after three backs: %+v", snap)
	}
}

func TestBreadcrumbsTrail(t *testing.T) {
	cases := []struct {
		game, sub string
		want      []string
		active    int
	}{
		{"", "", []string{"Главная"}, 0},
		{"brawlstars", "", []string{"Главная", "Brawl Stars"}, 1},
		{"clashroyale", "gems", []string{"Главная", "Clash Royale", "Гемы"}, 2},
	}
	for _, tc := range cases {
		crumbs := Breadcrumbs(tc.game, tc.sub)
		if len(crumbs) != len(tc.want) {
			t.Fatalf("game=%q sub=%q: got %d crumbs, want %d", tc.game, tc.sub, len(crumbs), len(tc.want))
		}
		for i, c := range crumbs {
			if c.Label != tc.want[i] {
				t.Errorf("crumb %d: got %q, want %q", i, c.Label, tc.want[i])
			}
			if c.Active != (i == tc.active) {
				t.Errorf("crumb %d: active=%v, want %v", i, c.Active, i == tc.active)
			}
		}
	}
}

func TestLabelFallbacks(t *testing.T) {
	if got := GameLabel("unknowngame"); got != "unknowngame" {
		t.Errorf("GameLabel fallback: got %q", got)
	}
	if got := CategoryLabel("mystery"); got != "mystery" {
		t.Errorf("CategoryLabel fallback: got %q", got)
	}
}
