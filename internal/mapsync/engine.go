// Package mapsync keeps the rendered map in lockstep with fleet state: live
// positions, the selected device, geofence overlays and playback sessions.
package mapsync

import (
	"context"
	"log"
	"sort"
	"sync"

	"fleetview/internal/client"
	"fleetview/internal/icon"
	"fleetview/internal/maplayer"
	"fleetview/internal/model"
	"fleetview/internal/playback"
	"fleetview/internal/project"
	"fleetview/internal/state"
)

// Source and layer ids. One owner per id; binders derive layer ids from the
// source id so concurrent mounts never collide.
const (
	sourcePositions = "positions"
	sourceSelected  = "selected-position"
	sourceMarkers   = "geofence-markers"
	sourceZones     = "geofence-zones"
	sourceRoutes    = "geofence-routes"
	sourcePlayRoute = "playback-route"
	sourceCursor    = "playback-cursor"
)

var deviceStatuses = []string{
	model.StatusMoving,
	model.StatusStopped,
	model.StatusIdle,
	model.StatusOffline,
}

// Engine wires store changes through the projector into the layer binders.
// All rendering flows through Engine so the map is always a pure function of
// the latest state snapshot.
type Engine struct {
	store     *state.Store
	platform  *client.Client
	icons     *icon.Resolver
	projector *project.Projector
	animator  *playback.Animator

	positions *maplayer.Binder
	selected  *maplayer.Binder
	markers   *maplayer.Binder
	zones     *maplayer.Binder
	routes    *maplayer.Binder
	playRoute *maplayer.Binder
	cursor    *maplayer.Binder

	mu         sync.Mutex
	selectedID uint
	session    *Session
	playGen    uint64

	events chan state.Event
	done   chan struct{}
}

// NewEngine builds an engine over the given renderer. The scheduler drives
// playback cursor animation frames.
func NewEngine(store *state.Store, platform *client.Client, renderer maplayer.Renderer,
	icons *icon.Resolver, projector *project.Projector, sched playback.FrameScheduler) *Engine {

	e := &Engine{
		store:     store,
		platform:  platform,
		icons:     icons,
		projector: projector,
		positions: maplayer.NewBinder(renderer, sourcePositions, true,
			maplayer.Layer{ID: sourcePositions + "-symbols", Spec: maplayer.LayerSpec{Type: "symbol"}},
			maplayer.Layer{ID: sourcePositions + "-clusters", Spec: maplayer.LayerSpec{Type: "circle"}},
		),
		selected: maplayer.NewBinder(renderer, sourceSelected, false,
			maplayer.Layer{ID: sourceSelected + "-symbols", Spec: maplayer.LayerSpec{Type: "symbol"}},
		),
		markers: maplayer.NewBinder(renderer, sourceMarkers, false,
			maplayer.Layer{ID: sourceMarkers + "-symbols", Spec: maplayer.LayerSpec{Type: "symbol"}},
		),
		zones: maplayer.NewBinder(renderer, sourceZones, false,
			maplayer.Layer{ID: sourceZones + "-fill", Spec: maplayer.LayerSpec{Type: "fill", Paint: map[string]interface{}{"fill-opacity": 0.25}}},
			maplayer.Layer{ID: sourceZones + "-outline", Spec: maplayer.LayerSpec{Type: "line"}},
		),
		routes: maplayer.NewBinder(renderer, sourceRoutes, false,
			maplayer.Layer{ID: sourceRoutes + "-line", Spec: maplayer.LayerSpec{Type: "line"}},
		),
		playRoute: maplayer.NewBinder(renderer, sourcePlayRoute, false,
			maplayer.Layer{ID: sourcePlayRoute + "-line", Spec: maplayer.LayerSpec{Type: "line", Paint: map[string]interface{}{"line-width": 3}}},
		),
		cursor: maplayer.NewBinder(renderer, sourceCursor, false,
			maplayer.Layer{ID: sourceCursor + "-symbol", Spec: maplayer.LayerSpec{Type: "symbol"}},
		),
		done: make(chan struct{}),
	}
	e.animator = playback.NewAnimator(sched, &cursorSink{binder: e.cursor})
	return e
}

// Start binds the layers in paint order and begins consuming store events.
func (e *Engine) Start(ctx context.Context) error {
	for _, b := range e.binders() {
		if err := b.Bind(); err != nil {
			return err
		}
	}

	e.events = e.store.Subscribe()
	go e.run(ctx)
	log.Println("[MapSync] Engine started")
	return nil
}

// Stop ends the event loop, stops any playback session and tears the layers
// down (layers before sources, inside each binder).
func (e *Engine) Stop() {
	e.store.Unsubscribe(e.events)
	<-e.done

	e.mu.Lock()
	session := e.session
	e.session = nil
	e.mu.Unlock()
	if session != nil {
		session.halt()
	}
	e.animator.Clear()

	for _, b := range e.binders() {
		b.Unbind()
	}
	log.Println("[MapSync] Engine stopped")
}

func (e *Engine) binders() []*maplayer.Binder {
	return []*maplayer.Binder{
		e.routes, e.zones, e.markers,
		e.playRoute, e.positions, e.selected, e.cursor,
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case ev, ok := <-e.events:
			if !ok {
				return
			}
			switch ev {
			case state.EventPositions, state.EventDevices:
				e.RefreshPositions()
			case state.EventGeofences:
				e.RefreshGeofences()
			}
		case <-ctx.Done():
			return
		}
	}
}

// SyncDevices fetches the device list into the store and preloads icons.
func (e *Engine) SyncDevices(ctx context.Context) error {
	devices, err := e.platform.Devices(ctx)
	if err != nil {
		return err
	}
	e.ensureDeviceIcons(ctx, devices)
	e.store.SetDevices(devices)
	return nil
}

// SyncGeofences fetches the geofence collection into the store. A failed
// fetch behind the client yields an empty collection, not an error.
func (e *Engine) SyncGeofences(ctx context.Context) {
	geofences := e.platform.Geofences(ctx)
	e.ensureMarkerIcons(ctx, geofences)
	e.store.SetGeofences(geofences)
}

// Select makes deviceID the selected device (0 clears the selection). Any
// active playback session is stopped synchronously before the switch.
func (e *Engine) Select(deviceID uint) {
	e.mu.Lock()
	e.playGen++ // invalidates any in-flight playback fetch
	session := e.session
	e.session = nil
	e.selectedID = deviceID
	e.mu.Unlock()

	if session != nil {
		session.halt()
		e.animator.Clear()
		e.playRoute.Clear()
	}
	e.RefreshPositions()
}

// ApplyPreferences switches the projector's display unit and direction-arrow
// mode, then reprojects the position layers so labels and arrows update
// immediately.
func (e *Engine) ApplyPreferences(speedUnit, directionMode string) {
	e.projector.Unit = speedUnit
	e.projector.DirectionMode = directionMode
	e.RefreshPositions()
}

// Selected returns the selected device id, 0 when none.
func (e *Engine) Selected() uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedID
}

// RefreshPositions reprojects all latest positions and replaces the two
// position datasets: the clustered fleet layer and the selected device's
// non-clustered layer.
func (e *Engine) RefreshPositions() {
	e.mu.Lock()
	selectedID := e.selectedID
	e.mu.Unlock()

	devices := e.store.Devices()
	byDevice := e.store.Positions()
	positions := make([]*model.Position, 0, len(byDevice))
	for _, p := range byDevice {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].DeviceID < positions[j].DeviceID
	})

	features := e.projector.ProjectPositions(devices, positions, selectedID)

	var clustered, selected []model.Feature
	for _, f := range features {
		if c, ok := f.Properties["cluster"].(bool); ok && !c {
			selected = append(selected, f)
			continue
		}
		clustered = append(clustered, f)
	}

	if err := e.positions.Update(clustered); err != nil {
		log.Printf("[MapSync] Failed to update position layer: %v", err)
	}
	if err := e.selected.Update(selected); err != nil {
		log.Printf("[MapSync] Failed to update selected layer: %v", err)
	}
}

// RefreshGeofences reprojects the geofence collection into the marker, zone
// and route datasets.
func (e *Engine) RefreshGeofences() {
	features := e.projector.ProjectGeofences(e.store.Geofences())

	byKind := map[string][]model.Feature{}
	for _, f := range features {
		kind, _ := f.Properties["kind"].(string)
		byKind[kind] = append(byKind[kind], f)
	}

	updates := []struct {
		binder *maplayer.Binder
		kind   model.GeofenceKind
	}{
		{e.markers, model.KindMarker},
		{e.zones, model.KindZone},
		{e.routes, model.KindRoute},
	}
	for _, u := range updates {
		if err := u.binder.Update(byKind[string(u.kind)]); err != nil {
			log.Printf("[MapSync] Failed to update %s layer: %v", u.kind, err)
		}
	}
}

func (e *Engine) ensureDeviceIcons(ctx context.Context, devices []*model.Device) {
	if e.icons == nil {
		return
	}
	for _, status := range deviceStatuses {
		e.icons.EnsureLoaded(ctx, icon.DefaultKey+"-"+status)
	}
	for _, d := range devices {
		if d.Icon != "" {
			e.icons.EnsureLoaded(ctx, icon.Resolve(d.Icon))
		}
		key := icon.Resolve(d.Category)
		for _, status := range deviceStatuses {
			e.icons.EnsureLoaded(ctx, key+"-"+status)
		}
	}
}

func (e *Engine) ensureMarkerIcons(ctx context.Context, geofences []*model.Geofence) {
	if e.icons == nil {
		return
	}
	e.icons.EnsureLoaded(ctx, icon.DefaultKey)
	for _, g := range geofences {
		if ref := g.IconRef(); ref != "" {
			e.icons.EnsureLoaded(ctx, icon.Resolve(ref))
		}
	}
}

// cursorSink renders the interpolated playback cursor as a one-feature
// dataset on its own layer.
type cursorSink struct {
	binder *maplayer.Binder
}

func (s *cursorSink) UpdateCursor(c playback.Cursor) {
	f := model.Feature{
		Type:     "Feature",
		ID:       "playback-cursor",
		Geometry: model.PointGeometry(c.Point),
		Properties: map[string]interface{}{
			"label":    c.Label,
			"rotation": c.Course,
			"icon":     icon.DefaultKey,
			"cluster":  false,
		},
	}
	if err := s.binder.Update([]model.Feature{f}); err != nil {
		log.Printf("[MapSync] Failed to update playback cursor: %v", err)
	}
}

func (s *cursorSink) ClearCursor() {
	if err := s.binder.Clear(); err != nil {
		log.Printf("[MapSync] Failed to clear playback cursor: %v", err)
	}
}
