package nav

import (
	"errors"
	"strings"
	"sync"
)

// Page identifies which top-level view is active.
type Page int

const (
	PageHome Page = iota
	PageCatalog
	PageCategory
	PageProfile
	PageSearch
)

// String returns the page name used in logs.
func (p Page) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageCatalog:
		return "catalog"
	case PageCategory:
		return "category"
	case PageProfile:
		return "profile"
	case PageSearch:
		return "search"
	default:
		return "unknown"
	}
}

// ErrNoActiveGame is returned when a category is opened without a catalog
// context; callers must open a catalog first.
var ErrNoActiveGame = errors.New("nav: no active game")

// State is an immutable snapshot of the navigation position. ActiveSubcategory
// is only ever set while ActiveGame is set.
type State struct {
	Page              Page
	ActiveGame        string
	ActiveSubcategory string
	SearchOpen        bool
}

// Controller owns the current page and the two scalar fields that together
// encode the whole navigable depth (Home → Catalog → Category). No history
// stack is kept; the product hierarchy is only two levels deep.
type Controller struct {
	mu          sync.Mutex
	page        Page
	game        string
	subcategory string
	searchOpen  bool
}

// NewController starts on the home page.
func NewController() *Controller {
	return &Controller{page: PageHome}
}

// Snapshot returns the current navigation state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	page := c.page
	if c.searchOpen {
		page = PageSearch
	}
	return State{
		Page:              page,
		ActiveGame:        c.game,
		ActiveSubcategory: c.subcategory,
		SearchOpen:        c.searchOpen,
	}
}

// GoHome resets to the home page, clearing the game and subcategory and
// closing the search overlay. Safe to call from any state.
func (c *Controller) GoHome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = PageHome
	c.game = ""
	c.subcategory = ""
	c.searchOpen = false
}

// OpenCatalog activates the catalog page for the given game, clearing any
// subcategory. The caller is responsible for loading the game's products.
func (c *Controller) OpenCatalog(game string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.game = strings.TrimSpace(game)
	c.subcategory = ""
	c.page = PageCatalog
	c.searchOpen = false
}

// OpenCategory activates a category page within the current catalog. It is an
// error to open a category without an active game.
func (c *Controller) OpenCategory(subcategory string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.game == "" {
		return ErrNoActiveGame
	}
	c.subcategory = strings.TrimSpace(subcategory)
	c.page = PageCategory
	return nil
}

// CloseCategory pops back from a category page to its catalog.
func (c *Controller) CloseCategory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subcategory = ""
	if c.page == PageCategory {
		c.page = PageCatalog
	}
}

// CloseCatalog pops back from the catalog to the home page. Clearing the game
// forces the subcategory to clear with it.
func (c *Controller) CloseCatalog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.game = ""
	c.subcategory = ""
	c.page = PageHome
}

// OpenProfile activates the profile page.
func (c *Controller) OpenProfile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = PageProfile
	c.searchOpen = false
}

// CloseProfile returns from the profile page to home.
func (c *Controller) CloseProfile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == PageProfile {
		c.page = PageHome
	}
}

// OpenSearch raises the search overlay above the current page.
func (c *Controller) OpenSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchOpen = true
}

// CloseSearch dismisses the search overlay, revealing the page beneath it.
func (c *Controller) CloseSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchOpen = false
}

// HandleBreadcrumbBack pops exactly one navigational level with deterministic
// precedence: category, then catalog, then home. From any reachable state it
// terminates at home within three calls.
func (c *Controller) HandleBreadcrumbBack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.subcategory != "":
		c.subcategory = ""
		if c.page == PageCategory {
			c.page = PageCatalog
		}
	case c.game != "":
		c.game = ""
		c.page = PageHome
	default:
		c.page = PageHome
		c.searchOpen = false
	}
}
