package state

import (
	"context"
	"testing"
	"time"

	"fleetview/internal/model"
)

func drain(ch chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestUpsertPositionSupersedesByFixTime(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.UpsertPosition(ctx, &model.Position{DeviceID: 1, Lat: 10, FixTime: base})
	s.UpsertPosition(ctx, &model.Position{DeviceID: 1, Lat: 11, FixTime: base.Add(time.Minute)})

	if got := s.Position(1); got == nil || got.Lat != 11 {
		t.Fatalf("latest = %+v, want the newer fix", got)
	}

	// Stale fix must not roll the state back.
	s.UpsertPosition(ctx, &model.Position{DeviceID: 1, Lat: 9, FixTime: base.Add(-time.Minute)})
	if got := s.Position(1); got.Lat != 11 {
		t.Errorf("latest = %+v, stale fix overwrote newer one", got)
	}
}

func TestPositionsAreKeyedPerDevice(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	now := time.Now()

	s.UpsertPosition(ctx, &model.Position{DeviceID: 1, Lat: 1, FixTime: now})
	s.UpsertPosition(ctx, &model.Position{DeviceID: 2, Lat: 2, FixTime: now})

	all := s.Positions()
	if len(all) != 2 {
		t.Fatalf("got %d positions, want 2", len(all))
	}
	if all[1].Lat != 1 || all[2].Lat != 2 {
		t.Errorf("positions = %+v", all)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := NewStore(nil)
	ch := s.Subscribe()

	s.SetDevices([]*model.Device{{ID: 1, Name: "Truck"}})
	s.UpsertPosition(context.Background(), &model.Position{DeviceID: 1, FixTime: time.Now()})
	s.SetGeofences([]*model.Geofence{{ID: 1, Name: "Depot"}})

	events := drain(ch)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), events)
	}
	want := []Event{EventDevices, EventPositions, EventGeofences}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, ev, want[i])
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore(nil)
	ch := s.Subscribe()
	s.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}

	// Double unsubscribe must not panic.
	s.Unsubscribe(ch)

	// Publishing after unsubscribe must not panic either.
	s.SetDevices(nil)
}

func TestSlowSubscriberDoesNotBlockStore(t *testing.T) {
	s := NewStore(nil)
	ch := s.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.SetDevices(nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("store blocked on a subscriber that never receives")
	}
	drain(ch)
}

func TestDeviceSnapshotIsACopy(t *testing.T) {
	s := NewStore(nil)
	s.SetDevices([]*model.Device{{ID: 1, Name: "Truck"}})

	snap := s.Devices()
	delete(snap, 1)

	if s.Device(1) == nil {
		t.Error("mutating the snapshot changed the store")
	}
}
