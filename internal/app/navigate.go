package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maks2008271/supercell-shop/internal/api"
	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/purchase"
)

// GoHome resets everything to the home page: navigation, search overlay and
// the purchase wizard. Idempotent and safe from any state.
func (a *App) GoHome() {
	a.Nav.GoHome()
	a.Search.Clear()
	a.Wizard.Close()
	a.Catalog.Reset()

	a.mu.Lock()
	a.catalogGen++
	a.ordersGen++
	a.catalogStatus = StatusIdle
	a.pendingHighlight = nil
	a.mu.Unlock()
}

// OpenCatalog navigates to the catalog page for game and starts the scoped
// product fetch. Navigation is not blocked while the fetch is in flight; a
// response arriving after the user moved on is discarded.
func (a *App) OpenCatalog(ctx context.Context, game string) {
	a.Nav.OpenCatalog(game)

	a.mu.Lock()
	a.catalogGen++
	gen := a.catalogGen
	a.catalogStatus = StatusLoading
	a.mu.Unlock()

	go a.loadGame(ctx, game, gen)
}

func (a *App) loadGame(ctx context.Context, game string, gen uint64) {
	err := a.Catalog.LoadForGame(ctx, game)

	a.mu.Lock()
	if gen != a.catalogGen || a.Nav.Snapshot().ActiveGame != game {
		// The user navigated elsewhere while the fetch was in flight.
		a.mu.Unlock()
		a.logger.Debug("app: discarding stale catalog load", zap.String("game", game))
		return
	}
	if err != nil {
		a.catalogStatus = StatusError
		a.pendingHighlight = nil
		a.mu.Unlock()
		a.notifier.Notify(NoticeError, "Не удалось загрузить товары")
		return
	}
	a.catalogStatus = StatusReady
	pending := a.pendingHighlight
	a.pendingHighlight = nil
	a.mu.Unlock()

	if pending != nil && a.onHighlight != nil {
		a.onHighlight(*pending)
	}
}

// OpenCategory navigates into a subcategory of the active catalog. The
// category's products are re-derived from the freshest game working set.
func (a *App) OpenCategory(subcategory string) error {
	return a.Nav.OpenCategory(subcategory)
}

// CloseCategory pops back to the catalog page.
func (a *App) CloseCategory() {
	a.Nav.CloseCategory()
}

// CloseCatalog pops back to the home page and drops the game working set;
// any in-flight scoped fetch is invalidated.
func (a *App) CloseCatalog() {
	a.Nav.CloseCatalog()
	a.Catalog.Reset()
	a.mu.Lock()
	a.catalogGen++
	a.catalogStatus = StatusIdle
	a.pendingHighlight = nil
	a.mu.Unlock()
}

// Back pops exactly one navigational level with the breadcrumb precedence:
// category, then catalog, then home.
func (a *App) Back() {
	snap := a.Nav.Snapshot()
	switch {
	case snap.ActiveSubcategory != "":
		a.CloseCategory()
	case snap.ActiveGame != "":
		a.CloseCatalog()
	default:
		a.GoHome()
	}
}

// OpenProfile navigates to the profile page and loads the order history in
// the background.
func (a *App) OpenProfile(ctx context.Context) {
	a.Nav.OpenProfile()

	a.mu.Lock()
	a.ordersGen++
	gen := a.ordersGen
	a.ordersStatus = StatusLoading
	a.mu.Unlock()

	go a.loadOrders(ctx, gen)
}

func (a *App) loadOrders(ctx context.Context, gen uint64) {
	orders, err := a.backend.UserOrders(ctx, a.env.UserID(), ordersPageSize)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.ordersGen {
		return
	}
	if err != nil {
		a.ordersStatus = StatusError
		a.logger.Warn("app: order history load failed", zap.Error(err))
		return
	}
	a.orders = orders
	a.ordersStatus = StatusReady
}

// CloseProfile returns from the profile page; a still-running order load is
// discarded on arrival.
func (a *App) CloseProfile() {
	a.Nav.CloseProfile()
	a.mu.Lock()
	a.ordersGen++
	a.mu.Unlock()
}

// OpenSearch raises the search overlay.
func (a *App) OpenSearch() {
	a.Nav.OpenSearch()
}

// CloseSearch dismisses the overlay and clears the query, marking any
// outstanding search stale.
func (a *App) CloseSearch() {
	a.Nav.CloseSearch()
	a.Search.Clear()
}

// OpenSearchResult resolves a search result, closes the overlay and
// navigates to the product's place in the catalog: its category page for the
// special categories, the general list otherwise. The highlight-and-scroll
// request is deferred until the scoped fetch lands, because the target grid
// does not exist before then.
func (a *App) OpenSearchResult(ctx context.Context, index int) error {
	product, err := a.Search.ResultAt(index)
	if err != nil {
		a.logger.Warn("app: search result vanished", zap.Int("index", index))
		return err
	}

	a.CloseSearch()
	a.Nav.OpenCatalog(product.Game)

	grid := GridCatalog
	if domain.IsSpecialSearchCategory(product.Subcategory) {
		if err := a.Nav.OpenCategory(product.Subcategory); err != nil {
			return err
		}
		grid = GridCategory
	}

	// The highlight must be registered before the load starts, or a fast
	// fetch completes without seeing it.
	a.mu.Lock()
	a.catalogGen++
	gen := a.catalogGen
	a.catalogStatus = StatusLoading
	a.pendingHighlight = &HighlightRequest{ProductID: product.ID, Grid: grid}
	a.mu.Unlock()

	go a.loadGame(ctx, product.Game, gen)
	return nil
}

// ActiveProducts returns the products the current page displays: the general
// list on the catalog page, the subcategory slice on a category page.
func (a *App) ActiveProducts() []domain.Product {
	snap := a.Nav.Snapshot()
	if snap.ActiveSubcategory != "" {
		return a.Catalog.CategoryProducts(snap.ActiveSubcategory)
	}
	if snap.ActiveGame != "" {
		return a.Catalog.GeneralProducts()
	}
	return nil
}

// BuyProduct opens the purchase wizard for a product id, resolving it from
// the loaded data. An unknown id is a logged no-op, not a failure.
func (a *App) BuyProduct(id int64) error {
	product, err := a.Catalog.FindByID(id)
	if err != nil {
		a.logger.Warn("app: buy for unknown product", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return a.Wizard.Open(product)
}

// SubmitPurchase runs the wizard submission and routes the outcome: the
// receipt feeds the success confirmation, errors become notifications while
// the wizard stays on the payment step for retry.
func (a *App) SubmitPurchase(ctx context.Context) error {
	receipt, err := a.Wizard.Submit(ctx)
	if errors.Is(err, purchase.ErrSubmitStale) {
		// The session this submission belonged to is gone; nothing to show.
		return err
	}
	if err != nil {
		a.notifier.Notify(NoticeError, submitErrorText(err))
		return err
	}

	a.mu.Lock()
	a.receipt = &receipt
	a.mu.Unlock()
	if receipt.PickupCode != "" {
		a.notifier.Notify(NoticeSuccess, "Заказ оформлен! Код: "+receipt.PickupCode)
	} else {
		a.notifier.Notify(NoticeSuccess, "Заказ оформлен! Ожидает оплаты.")
	}
	return nil
}

// Receipt returns the pending success confirmation, nil when there is none.
func (a *App) Receipt() *purchase.Receipt {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.receipt == nil {
		return nil
	}
	r := *a.receipt
	return &r
}

// CloseReceipt dismisses the success confirmation and returns home.
func (a *App) CloseReceipt() {
	a.mu.Lock()
	a.receipt = nil
	a.mu.Unlock()
	a.GoHome()
}

// submitErrorText maps a submission failure to its user-visible text.
func submitErrorText(err error) string {
	var reqErr *api.RequestError
	var valErr *purchase.ValidationError
	var authErr *purchase.UnauthenticatedError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.UserMessage()
	case errors.As(err, &valErr):
		return "Введите ваш Supercell ID"
	case errors.As(err, &authErr):
		return "Приложение должно быть запущено из Telegram"
	case errors.Is(err, purchase.ErrSubmitInFlight):
		return "Заказ уже оформляется"
	default:
		return "Ошибка при оформлении заказа"
	}
}
