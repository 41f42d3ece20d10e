// Package purchase implements the two-step order creation wizard:
// Closed → Info → Payment → {Success, Closed}.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/maks2008271/supercell-shop/internal/api"
	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/host"
	"github.com/maks2008271/supercell-shop/internal/platform/observability"
)

// Step identifies the wizard position.
type Step int

const (
	StepClosed Step = iota
	StepInfo
	StepPayment
)

// String returns the step name used in logs.
func (s Step) String() string {
	switch s {
	case StepClosed:
		return "closed"
	case StepInfo:
		return "info"
	case StepPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// charCountCap is the denominator shown by the live character counter.
const charCountCap = 200

var (
	// ErrSubmitterRequired is returned when the wizard is constructed without
	// an order submitter.
	ErrSubmitterRequired = errors.New("wizard: submitter is required")
	// ErrHostRequired is returned when the wizard is constructed without a
	// host environment.
	ErrHostRequired = errors.New("wizard: host environment is required")

	// ErrAlreadyOpen indicates Open was called while a purchase is underway.
	ErrAlreadyOpen = errors.New("wizard: already open")
	// ErrInvalidStep indicates an operation was invoked from the wrong step.
	ErrInvalidStep = errors.New("wizard: invalid step")
	// ErrSubmitInFlight indicates a second submit attempt arrived while one
	// is still outstanding; the attempt is rejected, not queued.
	ErrSubmitInFlight = errors.New("wizard: submit already in flight")
	// ErrSubmitStale indicates the purchase session was closed or replaced
	// while its submission was on the wire; the result is discarded and never
	// touches the current session.
	ErrSubmitStale = errors.New("wizard: submission superseded")
)

// ValidationError reports a user-correctable input problem. It is surfaced
// inline and never sent over the network.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return "wizard: " + e.Reason }

// UnauthenticatedError reports the absence of a host session: the purchase
// flow is unusable outside the embedding shell.
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string {
	return "wizard: no host session"
}

// Submitter performs the order creation call.
type Submitter interface {
	Purchase(ctx context.Context, req api.PurchaseRequest) (api.PurchaseResult, error)
}

// Receipt captures everything the success confirmation displays. The values
// are copied out of the wizard before it closes, so showing the confirmation
// never depends on state the close step has already erased.
type Receipt struct {
	PickupCode  string
	ProductName string
	Price       float64
	SupercellID string
}

// Deps wires the wizard's collaborators.
type Deps struct {
	Submitter Submitter
	Host      host.Environment
	Logger    *zap.Logger
	// RefreshProfile, when set, runs in the background after a successful
	// submission. Its failure is logged and never affects the already-shown
	// confirmation.
	RefreshProfile func(ctx context.Context) error
}

// Wizard is the purchase state machine. All methods are safe for concurrent
// use; the in-flight guard makes rapid repeated submission harmless.
type Wizard struct {
	mu          sync.Mutex
	submitter   Submitter
	env         host.Environment
	logger      *zap.Logger
	refresh     func(ctx context.Context) error
	step        Step
	product     *domain.Product
	supercellID string
	submitting  bool
	// epoch identifies the purchase session; it moves on every Open and
	// Close so an in-flight submission can tell its session is gone.
	epoch uint64
}

// NewWizard constructs a Wizard enforcing dependency validation.
func NewWizard(deps Deps) (*Wizard, error) {
	if deps.Submitter == nil {
		return nil, ErrSubmitterRequired
	}
	if deps.Host == nil {
		return nil, ErrHostRequired
	}
	return &Wizard{
		submitter: deps.Submitter,
		env:       deps.Host,
		logger:    observability.Ensure(deps.Logger),
		refresh:   deps.RefreshProfile,
		step:      StepClosed,
	}, nil
}

// Step returns the current wizard step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Product returns the product being purchased, nil when the wizard is closed.
func (w *Wizard) Product() *domain.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.product == nil {
		return nil
	}
	p := *w.product
	return &p
}

// SupercellID returns the identifier as entered, untrimmed.
func (w *Wizard) SupercellID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.supercellID
}

// Open starts a purchase for the given product. Valid only from Closed; the
// wizard begins at the info step with an empty identifier.
func (w *Wizard) Open(product domain.Product) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepClosed {
		return ErrAlreadyOpen
	}
	p := product
	w.product = &p
	w.supercellID = ""
	w.step = StepInfo
	w.epoch++
	return nil
}

// UpdateSupercellID stores the raw identifier text. Trimming happens on
// advance/submit, not here, so the live counter reflects what was typed.
func (w *Wizard) UpdateSupercellID(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.supercellID = text
}

// CharCount renders the live counter, e.g. "17/200". The count is the raw
// rune length; only the display denominator is capped, longer values are
// still accepted.
func (w *Wizard) CharCount() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fmt.Sprintf("%d/%d", utf8.RuneCountInString(w.supercellID), charCountCap)
}

// CanAdvance reports whether the identifier is non-empty after trimming,
// which is what enables progression to the payment step.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(w.supercellID) != ""
}

// AdvanceToPayment moves Info → Payment. An identifier that trims to empty
// yields a ValidationError, surfaced to the user and not fatal.
func (w *Wizard) AdvanceToPayment() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepInfo {
		return fmt.Errorf("%w: advance from %s", ErrInvalidStep, w.step)
	}
	if strings.TrimSpace(w.supercellID) == "" {
		return &ValidationError{Reason: "введите ваш Supercell ID"}
	}
	w.step = StepPayment
	return nil
}

// GoBack moves Payment → Info, preserving the entered identifier.
func (w *Wizard) GoBack() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepPayment {
		return fmt.Errorf("%w: back from %s", ErrInvalidStep, w.step)
	}
	w.step = StepInfo
	return nil
}

// Submit creates the order. Valid only from Payment with a product, a
// non-empty identifier and a host session present; on any precondition
// failure no network call is made. On success the wizard captures the receipt
// values, closes itself and schedules the background profile refresh. On
// failure it stays in Payment so the user can retry without re-entering the
// identifier.
func (w *Wizard) Submit(ctx context.Context) (Receipt, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return Receipt{}, ErrSubmitInFlight
	}
	if w.step != StepPayment {
		w.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: submit from %s", ErrInvalidStep, w.step)
	}
	if w.product == nil {
		w.mu.Unlock()
		return Receipt{}, &ValidationError{Reason: "недостаточно данных"}
	}
	supercellID := strings.TrimSpace(w.supercellID)
	if supercellID == "" {
		w.mu.Unlock()
		return Receipt{}, &ValidationError{Reason: "введите ваш Supercell ID"}
	}
	token := w.env.SessionToken()
	if token == "" {
		w.mu.Unlock()
		return Receipt{}, &UnauthenticatedError{}
	}

	// Capture the confirmation values before anything can clear the product,
	// and the session epoch so a completion landing after Close or a reopen
	// is discarded.
	product := *w.product
	epoch := w.epoch
	w.submitting = true
	w.mu.Unlock()

	result, err := w.submitter.Purchase(ctx, api.PurchaseRequest{
		UserID:      w.env.UserID(),
		ProductID:   product.ID,
		SupercellID: supercellID,
		InitData:    token,
	})

	w.mu.Lock()
	w.submitting = false
	if w.epoch != epoch {
		w.mu.Unlock()
		w.logger.Info("wizard: discarding superseded submission", zap.Int64("product", product.ID))
		return Receipt{}, ErrSubmitStale
	}
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("wizard: purchase failed", zap.Int64("product", product.ID), zap.Error(err))
		return Receipt{}, err
	}
	if !result.Success {
		w.mu.Unlock()
		msg := result.Message
		if msg == "" {
			msg = "Ошибка при оформлении заказа"
		}
		w.logger.Warn("wizard: purchase rejected", zap.Int64("product", product.ID), zap.String("reason", msg))
		return Receipt{}, &api.RequestError{Message: msg}
	}

	receipt := Receipt{
		PickupCode:  result.PickupCode,
		ProductName: product.Name,
		Price:       product.Price,
		SupercellID: supercellID,
	}
	w.resetLocked()
	w.mu.Unlock()

	w.logger.Info("wizard: purchase complete",
		zap.Int64("product", product.ID),
		zap.Int64("order", result.OrderID))
	w.scheduleProfileRefresh()
	return receipt, nil
}

// Close returns to Closed from any state, discarding product, step and
// identifier entirely. No stale product reference survives.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *Wizard) resetLocked() {
	w.step = StepClosed
	w.product = nil
	w.supercellID = ""
	w.epoch++
}

// scheduleProfileRefresh runs the profile refresh as a supervised background
// task: its outcome never reaches the caller.
func (w *Wizard) scheduleProfileRefresh() {
	if w.refresh == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("wizard: profile refresh panicked", zap.Any("panic", r))
			}
		}()
		if err := w.refresh(context.Background()); err != nil {
			w.logger.Warn("wizard: profile refresh failed", zap.Error(err))
		}
	}()
}
