// Package search implements the debounced product search: queries go to the
// backend after an idle interval, with a local substring fallback when the
// network path fails.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
	"github.com/maks2008271/supercell-shop/internal/platform/timeutil"
)

const (
	// DebounceDelay is how long input must stay idle before a query is sent.
	DebounceDelay = 300 * time.Millisecond
	// minQueryLength is the shortest trimmed query that triggers a search;
	// anything shorter shows the static suggestions instead.
	minQueryLength = 2
)

var (
	// ErrSearcherRequired is returned when the engine is constructed without
	// a remote searcher.
	ErrSearcherRequired = errors.New("search: searcher is required")
	// ErrSchedulerRequired is returned when the engine is constructed without
	// a scheduler.
	ErrSchedulerRequired = errors.New("search: scheduler is required")
	// ErrResultNotFound indicates the requested result index is out of range.
	ErrResultNotFound = errors.New("search: result not found")
)

// Searcher performs the remote search call.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

// LocalSource supplies the full catalog for the degraded local search path.
type LocalSource interface {
	All() []domain.Product
}

// Suggestion is one entry of the static suggestion set shown for short
// queries.
type Suggestion struct {
	Label string
	// Query is set for popular-query suggestions; tapping one runs it.
	Query string
	// Game is set for game shortcuts; tapping one opens that catalog.
	Game string
}

// Suggestions is the static set shown when the query is too short.
var Suggestions = []Suggestion{
	{Label: "💎 Гемы", Query: "гемы"},
	{Label: "🎫 Бравл Пасс", Query: "бравл пасс"},
	{Label: "🎁 Акции", Query: "акции"},
	{Label: "👑 Clash Royale", Query: "clash royale"},
	{Label: "⭐ Brawl Stars", Game: domain.GameBrawlStars},
	{Label: "👑 Clash Royale", Game: domain.GameClashRoyale},
	{Label: "⚔️ Clash of Clans", Game: domain.GameClashOfClans},
}

// Results is a snapshot of the search state.
type Results struct {
	Query    string
	Products []domain.Product
	// ShowSuggestions is set when the query was too short to search.
	ShowSuggestions bool
	// Fallback is set when the products came from the local match rather
	// than the backend.
	Fallback bool
	// Pending is set while a debounce timer or request is outstanding.
	Pending bool
}

// Deps wires the engine's collaborators.
type Deps struct {
	Searcher  Searcher
	Local     LocalSource
	Scheduler timeutil.Scheduler
	Logger    *zap.Logger
	// Debounce overrides DebounceDelay, mainly for tests.
	Debounce time.Duration
	// OnUpdate, when set, is invoked after each results change.
	OnUpdate func(Results)
}

// Engine is the debounced query processor. At most one debounce timer exists
// at a time: every keystroke cancels the prior timer before arming a new one,
// and a response for a superseded query is discarded on arrival.
type Engine struct {
	mu        sync.Mutex
	searcher  Searcher
	local     LocalSource
	scheduler timeutil.Scheduler
	logger    *zap.Logger
	debounce  time.Duration
	onUpdate  func(Results)

	query    string
	products []domain.Product
	fallback bool
	pending  bool
	timer    timeutil.Timer
	seq      uint64
}

// NewEngine constructs an Engine enforcing dependency validation.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Searcher == nil {
		return nil, ErrSearcherRequired
	}
	if deps.Scheduler == nil {
		return nil, ErrSchedulerRequired
	}
	debounce := deps.Debounce
	if debounce <= 0 {
		debounce = DebounceDelay
	}
	return &Engine{
		searcher:  deps.Searcher,
		local:     deps.Local,
		scheduler: deps.Scheduler,
		logger:    observability.Ensure(deps.Logger),
		debounce:  debounce,
		onUpdate:  deps.OnUpdate,
	}, nil
}

// Snapshot returns the current search state.
func (e *Engine) Snapshot() Results {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Results {
	products := make([]domain.Product, len(e.products))
	copy(products, e.products)
	return Results{
		Query:           e.query,
		Products:        products,
		ShowSuggestions: utf8.RuneCountInString(strings.TrimSpace(e.query)) < minQueryLength,
		Fallback:        e.fallback,
		Pending:         e.pending,
	}
}

// OnQueryChange processes a keystroke. Any pending debounce timer is
// cancelled first; short queries immediately show suggestions without a
// network call, longer ones arm a fresh timer.
func (e *Engine) OnQueryChange(text string) {
	e.mu.Lock()
	e.cancelTimerLocked()
	e.seq++
	seq := e.seq
	e.query = text

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minQueryLength {
		e.products = nil
		e.fallback = false
		e.pending = false
		e.notifyLocked()
		e.mu.Unlock()
		return
	}

	e.pending = true
	e.timer = e.scheduler.AfterFunc(e.debounce, func() {
		e.run(trimmed, seq)
	})
	e.notifyLocked()
	e.mu.Unlock()
}

// QuickSearch runs a suggestion tap as if the user typed it.
func (e *Engine) QuickSearch(query string) {
	e.OnQueryChange(query)
}

// run executes the query once the debounce interval elapsed.
func (e *Engine) run(query string, seq uint64) {
	products, err := e.searcher.Search(context.Background(), query)
	fallback := false
	if err != nil {
		// Degrade to the local case-insensitive substring match so search
		// keeps working without the backend.
		e.logger.Warn("search: remote search failed, using local fallback",
			zap.String("query", query), zap.Error(err))
		products = e.localMatch(query)
		fallback = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		// A newer keystroke or a close superseded this query.
		return
	}
	e.products = products
	e.fallback = fallback
	e.pending = false
	e.notifyLocked()
}

// localMatch filters the full catalog by case-insensitive substring on name
// or description.
func (e *Engine) localMatch(query string) []domain.Product {
	if e.local == nil {
		return nil
	}
	needle := strings.ToLower(query)
	var out []domain.Product
	for _, p := range e.local.All() {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// ResultAt resolves a displayed result by position.
func (e *Engine) ResultAt(index int) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.products) {
		return domain.Product{}, ErrResultNotFound
	}
	return e.products[index], nil
}

// Clear resets the search state, cancelling any pending timer and marking any
// in-flight response stale.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimerLocked()
	e.seq++
	e.query = ""
	e.products = nil
	e.fallback = false
	e.pending = false
	e.notifyLocked()
}

func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) notifyLocked() {
	if e.onUpdate != nil {
		e.onUpdate(e.snapshotLocked())
	}
}
