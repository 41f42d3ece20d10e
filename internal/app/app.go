// Package app owns the aggregate state of the mini-app storefront and
// coordinates the controllers behind a single lock. Timers and network
// completions re-enter through methods that re-validate the navigation
// context before applying results, so a response for a page the user has
// already left is discarded instead of overwriting newer state.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maks2008271/supercell-shop/internal/api"
	"github.com/maks2008271/supercell-shop/internal/carousel"
	"github.com/maks2008271/supercell-shop/internal/catalog"
	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/host"
	"github.com/maks2008271/supercell-shop/internal/nav"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
	"github.com/maks2008271/supercell-shop/internal/platform/timeutil"
	"github.com/maks2008271/supercell-shop/internal/purchase"
	"github.com/maks2008271/supercell-shop/internal/search"
)

// ordersPageSize caps the order history fetch.
const ordersPageSize = 20

// welcomeDelay postpones the greeting toast past the initial render.
const welcomeDelay = time.Second

// Backend is the remote API surface the engine consumes.
type Backend interface {
	Products(ctx context.Context) ([]domain.Product, error)
	ProductsByGame(ctx context.Context, game string) ([]domain.Product, error)
	User(ctx context.Context, userID int64) (domain.UserProfile, error)
	UserOrders(ctx context.Context, userID int64, limit int) ([]domain.Order, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	Purchase(ctx context.Context, req api.PurchaseRequest) (api.PurchaseResult, error)
}

// Status tracks an asynchronous load for a page section.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

// NotificationKind classifies toast notifications.
type NotificationKind string

const (
	NoticeInfo    NotificationKind = "info"
	NoticeSuccess NotificationKind = "success"
	NoticeError   NotificationKind = "error"
)

// Notifier receives toast-style notifications. No failure in the engine is
// fatal; everything user-visible degrades to a notification.
type Notifier interface {
	Notify(kind NotificationKind, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(kind NotificationKind, message string)

func (f NotifierFunc) Notify(kind NotificationKind, message string) { f(kind, message) }

// Grid identifies which product grid a highlight request targets.
type Grid int

const (
	GridCatalog Grid = iota
	GridCategory
)

// HighlightRequest asks the view to highlight and scroll to a product once
// the target grid exists.
type HighlightRequest struct {
	ProductID int64
	Grid      Grid
}

// ViewMode is the product list presentation toggle.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

var (
	// ErrBackendRequired is returned when the app is constructed without a
	// backend client.
	ErrBackendRequired = errors.New("app: backend is required")
	// ErrHostRequired is returned when the app is constructed without a host
	// environment.
	ErrHostRequired = errors.New("app: host environment is required")
)

// Deps wires the application's collaborators.
type Deps struct {
	Backend   Backend
	Host      host.Environment
	Scheduler timeutil.Scheduler
	Notifier  Notifier
	Logger    *zap.Logger
	// BannerSlides sets the carousel size; zero disables the carousel.
	BannerSlides int
	// OnHighlight, when set, receives highlight-and-scroll requests once the
	// target grid's contents exist.
	OnHighlight func(HighlightRequest)
}

// App is the single owned state aggregate. All cross-component operations go
// through it.
type App struct {
	backend  Backend
	env      host.Environment
	notifier Notifier
	logger   *zap.Logger
	sched    timeutil.Scheduler

	Nav      *nav.Controller
	Catalog  *catalog.Index
	Search   *search.Engine
	Wizard   *purchase.Wizard
	Carousel *carousel.Controller

	onHighlight func(HighlightRequest)

	mu               sync.Mutex
	profile          *domain.UserProfile
	orders           []domain.Order
	ordersStatus     Status
	catalogStatus    Status
	catalogGen       uint64
	ordersGen        uint64
	pendingHighlight *HighlightRequest
	receipt          *purchase.Receipt
	viewMode         ViewMode
}

// New constructs the application aggregate and its controllers.
func New(deps Deps) (*App, error) {
	if deps.Backend == nil {
		return nil, ErrBackendRequired
	}
	if deps.Host == nil {
		return nil, ErrHostRequired
	}
	sched := deps.Scheduler
	if sched == nil {
		sched = timeutil.Real()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(NotificationKind, string) {})
	}
	logger := observability.Ensure(deps.Logger)

	a := &App{
		backend:     deps.Backend,
		env:         deps.Host,
		notifier:    notifier,
		logger:      logger,
		sched:       sched,
		Nav:         nav.NewController(),
		onHighlight: deps.OnHighlight,
		viewMode:    ViewGrid,
	}

	index, err := catalog.NewIndex(catalog.Deps{Fetcher: deps.Backend, Logger: logger})
	if err != nil {
		return nil, err
	}
	a.Catalog = index

	engine, err := search.NewEngine(search.Deps{
		Searcher:  deps.Backend,
		Local:     index,
		Scheduler: sched,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	a.Search = engine

	wizard, err := purchase.NewWizard(purchase.Deps{
		Submitter:      deps.Backend,
		Host:           deps.Host,
		Logger:         logger,
		RefreshProfile: a.RefreshProfile,
	})
	if err != nil {
		return nil, err
	}
	a.Wizard = wizard

	if deps.BannerSlides > 0 {
		c, err := carousel.NewController(carousel.Deps{
			Slides:    deps.BannerSlides,
			Scheduler: sched,
		})
		if err != nil {
			return nil, err
		}
		a.Carousel = c
	}

	return a, nil
}

// Start performs the startup loads: the user profile and the full catalog are
// fetched concurrently, each failure non-fatal. The carousel autoplay is
// armed and the welcome toast scheduled.
func (a *App) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.RefreshProfile(gctx); err != nil {
			a.logger.Warn("app: initial profile load failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		// LoadAll logs its own failure and leaves the full set empty.
		_ = a.Catalog.LoadAll(gctx)
		return nil
	})
	_ = g.Wait()

	if a.Carousel != nil {
		a.Carousel.Start()
	}
	a.sched.AfterFunc(welcomeDelay, func() {
		a.notifier.Notify(NoticeSuccess, "Добро пожаловать в магазин!")
	})
}

// Profile returns the last fetched profile, nil before the first success.
func (a *App) Profile() *domain.UserProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.profile == nil {
		return nil
	}
	p := *a.profile
	return &p
}

// Orders returns the loaded order history and its load status.
func (a *App) Orders() ([]domain.Order, Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Order, len(a.orders))
	copy(out, a.orders)
	return out, a.ordersStatus
}

// CatalogStatus reports the state of the current scoped product load, which
// the catalog page renders as a loading placeholder or an error state.
func (a *App) CatalogStatus() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalogStatus
}

// ViewMode returns the product list presentation mode.
func (a *App) ViewMode() ViewMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewMode
}

// SetViewMode switches between grid and list presentation.
func (a *App) SetViewMode(mode ViewMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if mode == ViewGrid || mode == ViewList {
		a.viewMode = mode
	}
}

// RefreshProfile fetches the profile and replaces it wholesale. It never
// merges partial state.
func (a *App) RefreshProfile(ctx context.Context) error {
	profile, err := a.backend.User(ctx, a.env.UserID())
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.profile = &profile
	a.mu.Unlock()
	return nil
}
