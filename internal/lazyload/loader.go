// Package lazyload defers image loading until a placeholder approaches the
// viewport, mirroring an intersection observer with a proximity margin.
package lazyload

import (
	"sync"
)

// Margin is how far outside the viewport a placeholder may be and still start
// loading.
const Margin = 50.0

// Placeholder is a not-yet-loaded image slot with its vertical extent in the
// scrolled document.
type Placeholder struct {
	ID  string
	Ref string
	Top float64
	// Bottom must be >= Top.
	Bottom float64
}

// Loader tracks placeholders and resolves each to its real resource exactly
// once. A resolved placeholder leaves tracking permanently; re-tracking the
// same identifier is ignored.
type Loader struct {
	mu      sync.Mutex
	pending map[string]Placeholder
	loaded  map[string]string
	onLoad  func(id, ref string)
}

// NewLoader constructs a Loader. onLoad is invoked once per placeholder when
// it enters the proximity margin; it may be nil.
func NewLoader(onLoad func(id, ref string)) *Loader {
	return &Loader{
		pending: make(map[string]Placeholder),
		loaded:  make(map[string]string),
		onLoad:  onLoad,
	}
}

// Track registers a placeholder for observation. Placeholders that already
// resolved are never re-observed.
func (l *Loader) Track(p Placeholder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, done := l.loaded[p.ID]; done {
		return
	}
	l.pending[p.ID] = p
}

// Untrack drops a placeholder without resolving it, e.g. when its grid is
// torn down.
func (l *Loader) Untrack(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
}

// SetViewport reports the visible range [top, bottom]. Every tracked
// placeholder within Margin of that range resolves and is excluded from
// further tracking.
func (l *Loader) SetViewport(top, bottom float64) {
	l.mu.Lock()
	lo := top - Margin
	hi := bottom + Margin
	var fired []Placeholder
	for id, p := range l.pending {
		if p.Bottom >= lo && p.Top <= hi {
			l.loaded[id] = p.Ref
			delete(l.pending, id)
			fired = append(fired, p)
		}
	}
	onLoad := l.onLoad
	l.mu.Unlock()

	if onLoad == nil {
		return
	}
	for _, p := range fired {
		onLoad(p.ID, p.Ref)
	}
}

// Loaded reports whether the placeholder has resolved, returning its resource
// reference.
func (l *Loader) Loaded(id string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ref, ok := l.loaded[id]
	return ref, ok
}

// Tracking reports how many placeholders are still observed.
func (l *Loader) Tracking() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
