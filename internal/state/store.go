// Package state holds the console's live view of the fleet: devices, the
// latest position per device and the geofence collection.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"fleetview/internal/model"
)

// Event names what changed in the store.
type Event int

const (
	EventPositions Event = iota
	EventDevices
	EventGeofences
)

// Store keeps the current fleet state and notifies subscribers on change.
// When a redis client is set, the latest position per device is mirrored to
// a shadow key so a restarted console can warm up without waiting for the
// next uplink.
type Store struct {
	mu        sync.RWMutex
	devices   map[uint]*model.Device
	positions map[uint]*model.Position
	geofences []*model.Geofence

	subMu sync.Mutex
	subs  map[chan Event]struct{}

	redis *redis.Client
}

// NewStore creates an empty store. redisClient may be nil.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		devices:   make(map[uint]*model.Device),
		positions: make(map[uint]*model.Position),
		subs:      make(map[chan Event]struct{}),
		redis:     redisClient,
	}
}

// Subscribe returns a channel that receives an Event per store change. The
// channel is buffered; a slow subscriber misses intermediate events but
// always receives the latest one eventually.
func (s *Store) Subscribe() chan Event {
	ch := make(chan Event, 16)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (s *Store) Unsubscribe(ch chan Event) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; it will catch up on its next receive.
		}
	}
}

// SetDevices replaces the device list.
func (s *Store) SetDevices(devices []*model.Device) {
	s.mu.Lock()
	s.devices = make(map[uint]*model.Device, len(devices))
	for _, d := range devices {
		s.devices[d.ID] = d
	}
	s.mu.Unlock()
	s.notify(EventDevices)
}

// UpsertDevice adds or replaces a single device.
func (s *Store) UpsertDevice(d *model.Device) {
	s.mu.Lock()
	s.devices[d.ID] = d
	s.mu.Unlock()
	s.notify(EventDevices)
}

// Devices returns a snapshot of the device map.
func (s *Store) Devices() map[uint]*model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint]*model.Device, len(s.devices))
	for id, d := range s.devices {
		out[id] = d
	}
	return out
}

// Device returns one device, or nil.
func (s *Store) Device(id uint) *model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devices[id]
}

// UpsertPosition records a position as the device's latest. An update older
// than the stored fix for the same device is dropped.
func (s *Store) UpsertPosition(ctx context.Context, p *model.Position) {
	s.mu.Lock()
	if prev, ok := s.positions[p.DeviceID]; ok && p.FixTime.Before(prev.FixTime) {
		s.mu.Unlock()
		return
	}
	s.positions[p.DeviceID] = p
	s.mu.Unlock()

	s.shadowPosition(ctx, p)
	s.notify(EventPositions)
}

// Positions returns a snapshot of latest positions keyed by device id.
func (s *Store) Positions() map[uint]*model.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint]*model.Position, len(s.positions))
	for id, p := range s.positions {
		out[id] = p
	}
	return out
}

// Position returns the latest position for a device, or nil.
func (s *Store) Position(deviceID uint) *model.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[deviceID]
}

// SetGeofences replaces the geofence collection.
func (s *Store) SetGeofences(geofences []*model.Geofence) {
	s.mu.Lock()
	s.geofences = geofences
	s.mu.Unlock()
	s.notify(EventGeofences)
}

// Geofences returns the current geofence collection.
func (s *Store) Geofences() []*model.Geofence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geofences
}

func shadowKey(deviceID uint) string {
	return fmt.Sprintf("fleetview:shadow:%d", deviceID)
}

func (s *Store) shadowPosition(ctx context.Context, p *model.Position) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, shadowKey(p.DeviceID), data, 0).Err(); err != nil {
		log.Printf("[Store] Failed to shadow position for device %d: %v", p.DeviceID, err)
	}
}

// WarmFromShadow loads shadowed positions from redis into the store. Used on
// startup so the map is populated before the first live uplink arrives.
func (s *Store) WarmFromShadow(ctx context.Context) {
	if s.redis == nil {
		return
	}

	keys, err := s.redis.Keys(ctx, "fleetview:shadow:*").Result()
	if err != nil {
		log.Printf("[Store] Failed to list shadow keys: %v", err)
		return
	}

	loaded := 0
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var p model.Position
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("[Store] Corrupt shadow entry %s: %v", key, err)
			continue
		}
		s.mu.Lock()
		if prev, ok := s.positions[p.DeviceID]; !ok || !p.FixTime.Before(prev.FixTime) {
			s.positions[p.DeviceID] = &p
			loaded++
		}
		s.mu.Unlock()
	}

	if loaded > 0 {
		log.Printf("[Store] Warmed %d positions from shadow cache", loaded)
		s.notify(EventPositions)
	}
}
