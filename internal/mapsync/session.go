package mapsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fleetview/internal/geo"
	"fleetview/internal/model"
	"fleetview/internal/playback"
	"fleetview/internal/project"
)

// Session replays one device's historical position sequence through the
// playback cursor. A session belongs to the engine that created it; starting
// a new session or switching the selected device halts the previous one.
type Session struct {
	engine   *Engine
	deviceID uint
	name     string
	samples  []model.Position

	mu      sync.Mutex
	idx     int
	playing bool
	speed   float64
	stop    chan struct{}
}

// StartPlayback fetches the device's history for [from, to] and opens a
// playback session positioned at the first sample, paused. A session started
// after this one was requested wins: the stale fetch result is discarded.
func (e *Engine) StartPlayback(ctx context.Context, deviceID uint, from, to time.Time) (*Session, error) {
	e.mu.Lock()
	e.playGen++
	gen := e.playGen
	prev := e.session
	e.session = nil
	e.mu.Unlock()

	if prev != nil {
		prev.halt()
		e.animator.Clear()
		e.playRoute.Clear()
	}

	reports, err := e.platform.CombinedReport(ctx, deviceID, from, to)
	if err != nil {
		return nil, err
	}

	var samples []model.Position
	var route [][]float64
	for _, r := range reports {
		if r.DeviceID != deviceID {
			continue
		}
		samples = append(samples, r.Positions...)
		route = append(route, r.Route...)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no history for device %d in range", deviceID)
	}

	name := fmt.Sprintf("device %d", deviceID)
	if d := e.store.Device(deviceID); d != nil {
		name = d.Name
	}

	s := &Session{
		engine:   e,
		deviceID: deviceID,
		name:     name,
		samples:  samples,
		speed:    1,
	}

	e.mu.Lock()
	if e.playGen != gen {
		// A newer session or selection change raced this fetch.
		e.mu.Unlock()
		log.Printf("[MapSync] Discarding stale playback fetch for device %d", deviceID)
		return nil, fmt.Errorf("playback for device %d superseded", deviceID)
	}
	e.session = s
	e.mu.Unlock()

	if err := e.playRoute.Update([]model.Feature{routeFeature(deviceID, route, samples)}); err != nil {
		log.Printf("[MapSync] Failed to draw playback route: %v", err)
	}
	s.applySample(0, false)
	log.Printf("[MapSync] Playback session opened for device %d, %d samples", deviceID, len(samples))
	return s, nil
}

// ActiveSession returns the engine's current playback session, nil when none.
func (e *Engine) ActiveSession() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// StopPlayback ends the active session, clearing the cursor and route layers.
func (e *Engine) StopPlayback() {
	e.mu.Lock()
	e.playGen++
	s := e.session
	e.session = nil
	e.mu.Unlock()

	if s == nil {
		return
	}
	s.halt()
	e.animator.Clear()
	if err := e.playRoute.Clear(); err != nil {
		log.Printf("[MapSync] Failed to clear playback route: %v", err)
	}
	log.Printf("[MapSync] Playback session closed for device %d", s.deviceID)
}

// routeFeature prefers the report's pre-simplified route line; when absent it
// falls back to the raw sample coordinates.
func routeFeature(deviceID uint, route [][]float64, samples []model.Position) model.Feature {
	points := make([]geo.Point, 0, len(route))
	for _, c := range route {
		if len(c) >= 2 {
			// Route coordinates are [lon, lat] on the wire.
			points = append(points, geo.Point{Lat: c[1], Lon: c[0]})
		}
	}
	if len(points) == 0 {
		for _, p := range samples {
			points = append(points, p.Point())
		}
	}
	return model.Feature{
		Type:     "Feature",
		ID:       fmt.Sprintf("playback-route-%d", deviceID),
		Geometry: model.LineGeometry(points),
		Properties: map[string]interface{}{
			"device_id": deviceID,
			"kind":      "playback",
		},
	}
}

// DeviceID returns the device being replayed.
func (s *Session) DeviceID() uint { return s.deviceID }

// Len returns the number of samples.
func (s *Session) Len() int { return len(s.samples) }

// Index returns the current sample index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

// Playing reports whether the transport is running.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Speed returns the playback speed multiplier.
func (s *Session) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Play starts (or resumes) the transport. Ticks advance one sample per
// 1000ms/speed; each tick animates the cursor toward the next sample.
func (s *Session) Play() {
	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = true
	s.stop = make(chan struct{})
	stop := s.stop
	interval := tickInterval(s.speed)
	s.mu.Unlock()

	go s.tickLoop(stop, interval)
}

// Pause stops the transport; the cursor stays where it is.
func (s *Session) Pause() {
	s.mu.Lock()
	s.pauseLocked()
	s.mu.Unlock()
}

func (s *Session) pauseLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	close(s.stop)
	s.stop = nil
}

// SetSpeed changes the multiplier, re-timing the tick loop when running.
func (s *Session) SetSpeed(speed float64) {
	if speed <= 0 {
		speed = 1
	}
	s.mu.Lock()
	s.speed = speed
	wasPlaying := s.playing
	s.pauseLocked()
	s.mu.Unlock()

	if wasPlaying {
		s.Play()
	}
}

// Seek jumps to a specific sample with no animation, pausing the transport.
// Out-of-range indexes clamp to the sequence bounds.
func (s *Session) Seek(i int) {
	s.mu.Lock()
	s.pauseLocked()
	if i < 0 {
		i = 0
	}
	if i >= len(s.samples) {
		i = len(s.samples) - 1
	}
	s.idx = i
	s.mu.Unlock()

	s.applySample(i, false)
}

func (s *Session) halt() {
	s.mu.Lock()
	s.pauseLocked()
	s.mu.Unlock()
}

func tickInterval(speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(time.Second) / speed)
}

func (s *Session) tickLoop(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.advance() {
				return
			}
		case <-stop:
			return
		}
	}
}

// advance moves to the next sample and animates toward it. Returns false at
// the end of the sequence, pausing the transport there.
func (s *Session) advance() bool {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return false
	}
	if s.idx >= len(s.samples)-1 {
		s.pauseLocked()
		s.mu.Unlock()
		return false
	}
	s.idx++
	i := s.idx
	speed := s.speed
	s.mu.Unlock()

	s.applySampleSpeed(i, true, speed)
	return true
}

func (s *Session) applySample(i int, playing bool) {
	s.mu.Lock()
	speed := s.speed
	s.mu.Unlock()
	s.applySampleSpeed(i, playing, speed)
}

func (s *Session) applySampleSpeed(i int, playing bool, speed float64) {
	p := s.samples[i]
	s.engine.animator.SetTarget(playback.Cursor{
		Point:  p.Point(),
		Course: p.Course,
		Label:  project.SpeedLabel(s.name, p.Speed, s.engine.projector.Unit),
	}, playing, speed)
}
