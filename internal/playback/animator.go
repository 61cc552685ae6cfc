// Package playback animates the historical-playback cursor marker between
// discrete position samples so active playback renders smooth motion instead
// of jumps.
package playback

import (
	"math"
	"sync"
	"time"

	"fleetview/internal/geo"
)

// Cursor is the rendered playback marker: an interpolated point, its heading
// and a label.
type Cursor struct {
	Point  geo.Point
	Course float64
	Label  string
}

// Sink receives cursor updates, typically a map layer binder holding the
// playback layer. Updates are delivered while the animator's lock is held so
// a frame computed before a concurrent jump can never land after it; sinks
// must not call back into the animator.
type Sink interface {
	UpdateCursor(Cursor)
	ClearCursor()
}

// FrameScheduler drives animation steps at frame cadence. Schedule invokes
// fn once per frame until the returned cancel function is called.
type FrameScheduler interface {
	Schedule(fn func(now time.Time)) (cancel func())
}

// minDuration is the floor that keeps high speed multipliers from producing
// degenerate zero-length animations.
const minDuration = 50 * time.Millisecond

// Duration derives the animation length from the playback speed multiplier:
// 80% of the expected tick interval, floored at 50ms, so the animation always
// finishes before the next sample arrives.
func Duration(speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	d := time.Duration(0.8 * float64(time.Second) / speed)
	if d < minDuration {
		d = minDuration
	}
	return d
}

// Animator state machine: Idle (cursor parked, jumps apply immediately) and
// Animating (a frame callback interpolates toward the target). A new target
// arriving mid-flight cancels the running animation and restarts from the
// cursor's current interpolated position; pending targets are never queued.
type animState int

const (
	stateIdle animState = iota
	stateAnimating
)

// Animator produces a continuously interpolated cursor from discrete
// position samples.
type Animator struct {
	sched FrameScheduler
	sink  Sink

	mu         sync.Mutex
	state      animState
	hasCurrent bool
	current    Cursor

	from     Cursor
	to       Cursor
	start    time.Time
	duration time.Duration
	cancel   func()
}

// NewAnimator creates an idle animator feeding sink.
func NewAnimator(sched FrameScheduler, sink Sink) *Animator {
	return &Animator{sched: sched, sink: sink}
}

// SetTarget moves the cursor toward target. The cursor jumps immediately when
// there is no prior position or when playback is paused (scrubbing); during
// active playback it animates over Duration(speed).
func (a *Animator) SetTarget(target Cursor, playing bool, speed float64) {
	a.mu.Lock()
	a.cancelLocked()

	if !a.hasCurrent || !playing {
		a.current = target
		a.hasCurrent = true
		a.state = stateIdle
		a.sink.UpdateCursor(target)
		a.mu.Unlock()
		return
	}

	a.from = a.current
	a.to = target
	a.start = time.Time{} // stamped by the first frame
	a.duration = Duration(speed)
	a.state = stateAnimating
	a.cancel = a.sched.Schedule(a.step)
	a.mu.Unlock()
}

// Clear cancels any in-flight animation and removes the rendered cursor.
// Used on unmount and when the historical position list is discarded.
func (a *Animator) Clear() {
	a.mu.Lock()
	a.cancelLocked()
	a.state = stateIdle
	a.hasCurrent = false
	a.sink.ClearCursor()
	a.mu.Unlock()
}

func (a *Animator) cancelLocked() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Animator) step(now time.Time) {
	a.mu.Lock()
	if a.state != stateAnimating {
		a.mu.Unlock()
		return
	}
	if a.start.IsZero() {
		a.start = now
	}

	t := 1.0
	if a.duration > 0 {
		t = float64(now.Sub(a.start)) / float64(a.duration)
	}
	if t >= 1 {
		a.current = a.to
		a.state = stateIdle
		a.cancelLocked()
		a.sink.UpdateCursor(a.current)
		a.mu.Unlock()
		return
	}

	e := easeInOutCubic(t)
	cur := Cursor{
		Point:  geo.Lerp(a.from.Point, a.to.Point, e),
		Course: geo.NormalizeBearing(a.from.Course + geo.BearingDelta(a.from.Course, a.to.Course)*e),
		Label:  a.to.Label,
	}
	a.current = cur
	a.sink.UpdateCursor(cur)
	a.mu.Unlock()
}

// easeInOutCubic eases the [0,1] progress parameter.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
