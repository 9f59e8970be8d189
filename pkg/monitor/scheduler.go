package monitor

import (
	"sync"
	"time"
)

// Timer is a handle on a scheduled periodic callback.
type Timer interface {
	// Cancel stops further invocations. It is safe to call more than once.
	Cancel()
}

// Scheduler runs callbacks periodically on behalf of a Monitor.
type Scheduler interface {
	// SchedulePeriodic invokes fn after delay and then every period until the
	// returned Timer is cancelled. fn must not block.
	SchedulePeriodic(delay, period time.Duration, fn func()) Timer
}

// TickerScheduler runs every timer on its own goroutine driven by a
// time.Ticker.
type TickerScheduler struct{}

var _ Scheduler = TickerScheduler{}

func (TickerScheduler) SchedulePeriodic(delay, period time.Duration, fn func()) Timer {
	t := &tickerTimer{stop: make(chan struct{})}
	go t.run(delay, period, fn)
	return t
}

type tickerTimer struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTimer) Cancel() {
	t.once.Do(func() { close(t.stop) })
}

func (t *tickerTimer) run(delay, period time.Duration, fn func()) {
	first := time.NewTimer(delay)
	defer first.Stop()
	select {
	case <-first.C:
	case <-t.stop:
		return
	}
	fn()

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-t.stop:
			return
		}
	}
}
