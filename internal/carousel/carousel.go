// Package carousel drives the autoplaying banner slider.
package carousel

import (
	"errors"
	"sync"
	"time"

	"github.com/maks2008271/supercell-shop/internal/platform/timeutil"
)

const (
	// AutoplayInterval is the period between automatic advances.
	AutoplayInterval = 5 * time.Second
	// SwipeThreshold is the minimum horizontal displacement that counts as a
	// swipe; anything smaller is a no-op.
	SwipeThreshold = 50.0
)

var (
	// ErrNoSlides is returned when the controller is constructed without
	// slides.
	ErrNoSlides = errors.New("carousel: slide count must be positive")
	// ErrSchedulerRequired is returned when no scheduler is provided.
	ErrSchedulerRequired = errors.New("carousel: scheduler is required")
)

// Deps wires the controller's collaborators.
type Deps struct {
	Slides    int
	Scheduler timeutil.Scheduler
	// Interval overrides AutoplayInterval, mainly for tests.
	Interval time.Duration
	// OnChange, when set, is invoked with the new index after every move.
	OnChange func(index int)
}

// Controller owns the active slide index and the autoplay timer. Manual
// interaction always fully cancels the previous timer before arming a new
// one, so two autoplay advances can never fire for a single interval.
type Controller struct {
	mu        sync.Mutex
	slides    int
	interval  time.Duration
	scheduler timeutil.Scheduler
	onChange  func(int)
	index     int
	timer     timeutil.Timer
}

// NewController constructs a Controller enforcing dependency validation.
func NewController(deps Deps) (*Controller, error) {
	if deps.Slides <= 0 {
		return nil, ErrNoSlides
	}
	if deps.Scheduler == nil {
		return nil, ErrSchedulerRequired
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = AutoplayInterval
	}
	return &Controller{
		slides:    deps.Slides,
		interval:  interval,
		scheduler: deps.Scheduler,
		onChange:  deps.OnChange,
	}, nil
}

// Start arms the autoplay timer. Calling Start on a running controller
// restarts the interval.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked()
}

// Stop cancels autoplay.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// ActiveIndex returns the current slide index, always in [0, slides).
func (c *Controller) ActiveIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Select jumps to a slide directly (dot tap) and resets the autoplay timer so
// the manual choice is not immediately auto-advanced away.
func (c *Controller) Select(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= c.slides {
		return
	}
	c.index = index
	c.resetLocked()
	c.fireLocked()
}

// Next advances one slide with wraparound and resets the autoplay timer.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = (c.index + 1) % c.slides
	c.resetLocked()
	c.fireLocked()
}

// Prev regresses one slide with wraparound and resets the autoplay timer.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = (c.index - 1 + c.slides) % c.slides
	c.resetLocked()
	c.fireLocked()
}

// Swipe interprets a horizontal displacement (start minus end): beyond the
// threshold a positive delta advances and a negative one regresses; below the
// threshold nothing happens and the timer is left alone.
func (c *Controller) Swipe(delta float64) {
	if delta > SwipeThreshold {
		c.Next()
	} else if delta < -SwipeThreshold {
		c.Prev()
	}
}

// advance is the autoplay tick.
func (c *Controller) advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = (c.index + 1) % c.slides
	c.fireLocked()
}

func (c *Controller) armLocked() {
	c.stopLocked()
	c.timer = c.scheduler.Every(c.interval, c.advance)
}

// resetLocked restarts autoplay only if it was running.
func (c *Controller) resetLocked() {
	if c.timer != nil {
		c.armLocked()
	}
}

func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) fireLocked() {
	if c.onChange != nil {
		c.onChange(c.index)
	}
}
