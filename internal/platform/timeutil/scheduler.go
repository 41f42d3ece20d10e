package timeutil

import (
	"sync"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. Stopping an already fired or stopped timer is a
	// no-op.
	Stop()
}

// Scheduler creates timers. Controllers take a Scheduler so tests can drive
// debounce and autoplay deterministically instead of sleeping.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every runs fn repeatedly with period d until the returned timer is
	// stopped.
	Every(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

type realTimer struct{ t *time.Timer }

func (rt realTimer) Stop() { rt.t.Stop() }

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (rt *realTicker) Stop() {
	rt.once.Do(func() {
		rt.ticker.Stop()
		close(rt.done)
	})
}

// Real returns a Scheduler backed by the wall clock.
func Real() Scheduler { return realScheduler{} }

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

func (realScheduler) Every(d time.Duration, fn func()) Timer {
	rt := &realTicker{ticker: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-rt.ticker.C:
				fn()
			case <-rt.done:
				return
			}
		}
	}()
	return rt
}

// ManualScheduler is a deterministic Scheduler for tests. Time only moves when
// Advance is called; due callbacks run synchronously on the calling goroutine.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*manualTimer
}

type manualTimer struct {
	s      *ManualScheduler
	id     int
	due    time.Duration
	period time.Duration // zero for one-shot
	fn     func()
}

func (mt *manualTimer) Stop() {
	mt.s.mu.Lock()
	defer mt.s.mu.Unlock()
	mt.s.remove(mt.id)
}

// NewManualScheduler returns a scheduler starting at time zero.
func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return s.add(d, 0, fn)
}

func (s *ManualScheduler) Every(d time.Duration, fn func()) Timer {
	return s.add(d, d, fn)
}

func (s *ManualScheduler) add(d, period time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	mt := &manualTimer{s: s, id: s.nextID, due: s.now + d, period: period, fn: fn}
	s.timers = append(s.timers, mt)
	return mt
}

func (s *ManualScheduler) remove(id int) {
	for i, t := range s.timers {
		if t.id == id {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// Pending reports how many timers are armed.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Advance moves the clock forward by d, firing due timers in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	for {
		var next *manualTimer
		for _, t := range s.timers {
			if t.due > target {
				continue
			}
			if next == nil || t.due < next.due || (t.due == next.due && t.id < next.id) {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			s.remove(next.id)
		}
		fn := next.fn
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}
