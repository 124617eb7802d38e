package node

import (
	"sync"
	"time"
)

// timerFactory arms a timer that calls f after d and returns a function that
// disarms it.
type timerFactory func(d time.Duration, f func()) (stop func() bool)

// TimerService performs ScheduleTimeout commands. When a timer expires, its
// token is delivered on TickCh for the node to hand back to its handler.
type TimerService struct {
	timerFactory timerFactory
	tickCh       chan TimerToken //sends fired tokens to the node
	shutdownCh   chan struct{}   //receives instruction to stop delivering

	lock     sync.Mutex
	timers   map[TimerToken]func() bool
	shutdown bool
}

// NewTimerService ...
func NewTimerService(timerFactory timerFactory) *TimerService {
	return &TimerService{
		timerFactory: timerFactory,
		tickCh:       make(chan TimerToken),
		shutdownCh:   make(chan struct{}),
		timers:       make(map[TimerToken]func() bool),
	}
}

// NewRealTimerService returns a TimerService backed by time.AfterFunc.
func NewRealTimerService() *TimerService {
	return NewTimerService(func(d time.Duration, f func()) func() bool {
		return time.AfterFunc(d, f).Stop
	})
}

// Schedule arms a timer for token. Scheduling the same token twice replaces
// the previous timer.
func (t *TimerService) Schedule(d time.Duration, token TimerToken) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.shutdown {
		return
	}

	if stop, ok := t.timers[token]; ok {
		stop()
	}

	t.timers[token] = t.timerFactory(d, func() { t.fire(token) })
}

func (t *TimerService) fire(token TimerToken) {
	t.lock.Lock()
	delete(t.timers, token)
	t.lock.Unlock()

	select {
	case t.tickCh <- token:
	case <-t.shutdownCh:
	}
}

// TickCh delivers the tokens of expired timers.
func (t *TimerService) TickCh() <-chan TimerToken {
	return t.tickCh
}

// Pending returns the number of armed timers.
func (t *TimerService) Pending() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.timers)
}

// Shutdown disarms every timer and stops delivering tokens.
func (t *TimerService) Shutdown() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.shutdown {
		return
	}
	t.shutdown = true

	for token, stop := range t.timers {
		stop()
		delete(t.timers, token)
	}

	close(t.shutdownCh)
}
