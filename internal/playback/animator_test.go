package playback

import (
	"math"
	"sync"
	"testing"
	"time"

	"fleetview/internal/geo"
)

// manualScheduler hands frame control to the test.
type manualScheduler struct {
	mu        sync.Mutex
	fn        func(now time.Time)
	scheduled int
	cancelled int
}

func (s *manualScheduler) Schedule(fn func(now time.Time)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
	s.scheduled++
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cancelled++
		s.fn = nil
	}
}

func (s *manualScheduler) frame(now time.Time) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(now)
	}
}

type recordingSink struct {
	updates []Cursor
	clears  int
}

func (r *recordingSink) UpdateCursor(c Cursor) { r.updates = append(r.updates, c) }
func (r *recordingSink) ClearCursor()          { r.clears++ }

func (r *recordingSink) last(t *testing.T) Cursor {
	t.Helper()
	if len(r.updates) == 0 {
		t.Fatal("no cursor updates recorded")
	}
	return r.updates[len(r.updates)-1]
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		expected time.Duration
	}{
		{"Speed 1", 1, 800 * time.Millisecond},
		{"Speed 10", 10, 80 * time.Millisecond},
		{"Speed 16 Exactly At Floor", 16, 50 * time.Millisecond},
		{"Speed 20 Clamped To Floor", 20, 50 * time.Millisecond},
		{"Zero Speed Treated As 1", 0, 800 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.speed); got != tt.expected {
				t.Errorf("Duration(%v) = %v, want %v", tt.speed, got, tt.expected)
			}
		})
	}
}

func TestFirstTargetJumps(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	target := Cursor{Point: geo.Point{Lat: 10, Lon: 20}, Course: 90}
	a.SetTarget(target, true, 1)

	if sched.scheduled != 0 {
		t.Error("first target must jump, not animate")
	}
	if got := sink.last(t); got != target {
		t.Errorf("cursor = %+v, want %+v", got, target)
	}
}

func TestPausedTargetJumpsWithoutFrames(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	a.SetTarget(Cursor{Point: geo.Point{Lat: 0, Lon: 0}}, false, 1)
	target := Cursor{Point: geo.Point{Lat: 5, Lon: 5}}
	a.SetTarget(target, false, 1)

	if sched.scheduled != 0 {
		t.Error("paused updates must not schedule frames")
	}
	if len(sink.updates) != 2 {
		t.Fatalf("got %d updates, want 2 (one per jump, no intermediate frames)", len(sink.updates))
	}
	if got := sink.last(t); got != target {
		t.Errorf("cursor = %+v, want %+v", got, target)
	}
}

func TestPlayingAnimatesWithEasing(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	a.SetTarget(Cursor{Point: geo.Point{Lat: 0, Lon: 0}, Course: 0}, true, 1)
	a.SetTarget(Cursor{Point: geo.Point{Lat: 1, Lon: 1}, Course: 0}, true, 1)

	if sched.scheduled != 1 {
		t.Fatalf("scheduled %d animations, want 1", sched.scheduled)
	}

	start := time.Unix(1000, 0)
	sched.frame(start) // stamps start, progress 0
	sched.frame(start.Add(400 * time.Millisecond))

	mid := sink.last(t)
	// Cubic ease-in-out is exactly 0.5 at half progress.
	if math.Abs(mid.Point.Lat-0.5) > 1e-9 || math.Abs(mid.Point.Lon-0.5) > 1e-9 {
		t.Errorf("midpoint = %+v, want (0.5, 0.5)", mid.Point)
	}

	sched.frame(start.Add(800 * time.Millisecond))
	end := sink.last(t)
	if end.Point != (geo.Point{Lat: 1, Lon: 1}) {
		t.Errorf("final cursor = %+v, want target", end.Point)
	}
	if sched.cancelled != 1 {
		t.Error("finished animation did not release its frame callback")
	}
}

func TestBearingTakesShorterArc(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	a.SetTarget(Cursor{Point: geo.Point{}, Course: 350}, true, 1)
	a.SetTarget(Cursor{Point: geo.Point{}, Course: 10}, true, 1)

	start := time.Unix(1000, 0)
	sched.frame(start)
	sched.frame(start.Add(400 * time.Millisecond))

	mid := sink.last(t)
	// Halfway from 350 through north to 10 is 0, never 180.
	if math.Abs(geo.BearingDelta(0, mid.Course)) > 0.001 {
		t.Errorf("mid course = %v, want 0 (shorter arc through north)", mid.Course)
	}
}

func TestRetargetMidFlightRestartsFromInterpolated(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	a.SetTarget(Cursor{Point: geo.Point{Lat: 0, Lon: 0}}, true, 1)
	a.SetTarget(Cursor{Point: geo.Point{Lat: 1, Lon: 1}}, true, 1)

	start := time.Unix(1000, 0)
	sched.frame(start)
	sched.frame(start.Add(400 * time.Millisecond)) // cursor at (0.5, 0.5)

	a.SetTarget(Cursor{Point: geo.Point{Lat: 0.5, Lon: 2}}, true, 1)
	if sched.cancelled != 1 {
		t.Error("in-flight animation not cancelled on retarget")
	}
	if sched.scheduled != 2 {
		t.Fatalf("scheduled %d animations, want 2", sched.scheduled)
	}

	restart := start.Add(500 * time.Millisecond)
	sched.frame(restart)
	sched.frame(restart.Add(400 * time.Millisecond))

	mid := sink.last(t)
	// From (0.5, 0.5) to (0.5, 2): halfway is (0.5, 1.25).
	if math.Abs(mid.Point.Lat-0.5) > 1e-9 || math.Abs(mid.Point.Lon-1.25) > 1e-9 {
		t.Errorf("cursor = %+v, want restart from (0.5, 0.5)", mid.Point)
	}
}

// A frame racing a jump must never deliver its interpolated cursor after the
// jump's update: sink delivery holds the animator lock, so whichever side wins
// the lock delivers first and the jump is always the last update recorded.
func TestJumpSupersedesRacingFrame(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	a.SetTarget(Cursor{Point: geo.Point{Lat: 0, Lon: 0}}, false, 1)

	jump := Cursor{Point: geo.Point{Lat: 9, Lon: 9}}
	for i := 0; i < 100; i++ {
		a.SetTarget(Cursor{Point: geo.Point{Lat: 1, Lon: 1}}, true, 1)

		start := time.Unix(int64(1000+i), 0)
		sched.frame(start) // stamps start

		done := make(chan struct{})
		go func() {
			sched.frame(start.Add(400 * time.Millisecond))
			close(done)
		}()
		a.SetTarget(jump, false, 1)
		<-done

		if got := sink.last(t); got != jump {
			t.Fatalf("iteration %d: last cursor = %+v, want jump target %+v", i, got, jump)
		}
	}
}

func TestClearCancelsAndClearsCursor(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	a := NewAnimator(sched, sink)

	a.SetTarget(Cursor{Point: geo.Point{Lat: 0, Lon: 0}}, true, 1)
	a.SetTarget(Cursor{Point: geo.Point{Lat: 1, Lon: 1}}, true, 1)

	a.Clear()
	if sched.cancelled != 1 {
		t.Error("Clear did not cancel the pending frame callback")
	}
	if sink.clears != 1 {
		t.Error("Clear did not clear the rendered cursor")
	}

	// After Clear the next target jumps again (no prior position).
	a.SetTarget(Cursor{Point: geo.Point{Lat: 3, Lon: 3}}, true, 1)
	if sched.scheduled != 1 {
		t.Error("target after Clear must jump, not animate")
	}
	if got := sink.last(t); got.Point != (geo.Point{Lat: 3, Lon: 3}) {
		t.Errorf("cursor = %+v, want jump target", got.Point)
	}
}
