package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
)

// ErrFetcherRequired is returned when the index is constructed without a
// product source.
var ErrFetcherRequired = errors.New("catalog: fetcher is required")

// ErrProductNotFound indicates the referenced product is absent from the
// loaded data.
var ErrProductNotFound = errors.New("catalog: product not found")

// Fetcher supplies products from the backend.
type Fetcher interface {
	Products(ctx context.Context) ([]domain.Product, error)
	ProductsByGame(ctx context.Context, game string) ([]domain.Product, error)
}

// Deps wires the collaborators of the index.
type Deps struct {
	Fetcher Fetcher
	Logger  *zap.Logger
}

// Index owns the product working set for the session: the full catalog, the
// active game's products, and the general subset derived from them. Only the
// index's own load operations mutate these; everything else reads snapshots.
type Index struct {
	mu      sync.Mutex
	fetch   Fetcher
	logger  *zap.Logger
	all     []domain.Product
	game    string
	gamePrs []domain.Product
	general []domain.Product
	loadGen uint64
}

// NewIndex constructs an Index enforcing dependency validation.
func NewIndex(deps Deps) (*Index, error) {
	if deps.Fetcher == nil {
		return nil, ErrFetcherRequired
	}
	return &Index{
		fetch:  deps.Fetcher,
		logger: observability.Ensure(deps.Logger),
	}, nil
}

// LoadAll fetches the entire catalog once at startup. Failure is non-fatal:
// it is logged, allProducts stays empty, and the narrower per-game loads keep
// the views working.
func (i *Index) LoadAll(ctx context.Context) error {
	products, err := i.fetch.Products(ctx)
	if err != nil {
		i.logger.Warn("catalog: full load failed", zap.Error(err))
		return err
	}
	i.mu.Lock()
	i.all = products
	i.mu.Unlock()
	i.logger.Info("catalog: full load complete", zap.Int("products", len(products)))
	return nil
}

// LoadForGame fetches products scoped to game, replacing the game working set
// and re-deriving the general subset. If another load for a different game
// starts before this one resolves, the stale response is discarded on arrival
// rather than overwriting the newer state.
func (i *Index) LoadForGame(ctx context.Context, game string) error {
	game = strings.TrimSpace(game)
	if game == "" {
		return fmt.Errorf("catalog: game is required")
	}

	i.mu.Lock()
	i.game = game
	i.loadGen++
	gen := i.loadGen
	i.mu.Unlock()

	products, err := i.fetch.ProductsByGame(ctx, game)

	i.mu.Lock()
	defer i.mu.Unlock()
	if gen != i.loadGen {
		// A newer load superseded this one while the request was in flight.
		i.logger.Debug("catalog: discarding stale load", zap.String("game", game))
		return nil
	}
	if err != nil {
		i.logger.Warn("catalog: game load failed", zap.String("game", game), zap.Error(err))
		return err
	}
	i.gamePrs = products
	i.general = i.general[:0:0]
	for _, p := range products {
		if p.IsGeneral() {
			i.general = append(i.general, p)
		}
	}
	i.logger.Info("catalog: game load complete",
		zap.String("game", game),
		zap.Int("products", len(products)),
		zap.Int("general", len(i.general)))
	return nil
}

// Reset clears the game working set, e.g. when navigating back to the home
// page. Any in-flight game load is invalidated.
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loadGen++
	i.game = ""
	i.gamePrs = nil
	i.general = nil
}

// ActiveGame returns the game the working set is scoped to.
func (i *Index) ActiveGame() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.game
}

// All returns a snapshot of the full catalog.
func (i *Index) All() []domain.Product {
	i.mu.Lock()
	defer i.mu.Unlock()
	return snapshot(i.all)
}

// GameProducts returns a snapshot of the active game's products.
func (i *Index) GameProducts() []domain.Product {
	i.mu.Lock()
	defer i.mu.Unlock()
	return snapshot(i.gamePrs)
}

// GeneralProducts returns the subset of the active game's products that carry
// no subcategory (or the "all" sentinel). A product with a real subcategory
// never appears here.
func (i *Index) GeneralProducts() []domain.Product {
	i.mu.Lock()
	defer i.mu.Unlock()
	return snapshot(i.general)
}

// CategoryProducts derives the products of the given subcategory from the
// freshest game working set. The result is never cached.
func (i *Index) CategoryProducts(subcategory string) []domain.Product {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []domain.Product
	for _, p := range i.gamePrs {
		if p.Subcategory == subcategory {
			out = append(out, p)
		}
	}
	return out
}

// FindByID resolves a product from the loaded data, searching the game
// working set first and the full catalog second.
func (i *Index) FindByID(id int64) (domain.Product, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, p := range i.gamePrs {
		if p.ID == id {
			return p, nil
		}
	}
	for _, p := range i.all {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
}

func snapshot(src []domain.Product) []domain.Product {
	if len(src) == 0 {
		return nil
	}
	out := make([]domain.Product, len(src))
	copy(out, src)
	return out
}
