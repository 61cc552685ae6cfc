package playback

import (
	"sync"
	"time"
)

// TickerScheduler is the production frame scheduler: a goroutine ticking at
// Interval for the lifetime of one animation.
type TickerScheduler struct {
	// Interval defaults to ~60 frames per second.
	Interval time.Duration
}

// Schedule starts a frame loop calling fn until cancel is invoked. Cancel is
// idempotent and never blocks.
func (s TickerScheduler) Schedule(fn func(now time.Time)) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				fn(now)
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
