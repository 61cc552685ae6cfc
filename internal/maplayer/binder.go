// Package maplayer owns the lifecycle of map source+layer pairs on an
// imperative renderer: create on first use, replace the whole dataset on
// every relevant state change, tear down on unmount.
package maplayer

import (
	"fmt"
	"sync"

	"fleetview/internal/model"
)

// Renderer is the imperative map the binders drive. Wrapping the map behind
// an explicit handle (instead of a module-level singleton) keeps source/layer
// ownership and teardown order testable without a live map.
type Renderer interface {
	HasSource(id string) bool
	AddSource(id string, cluster bool) error
	// SetSourceData replaces the entire dataset of a source in one call.
	SetSourceData(id string, data model.FeatureCollection) error
	RemoveSource(id string) error

	HasLayer(id string) bool
	AddLayer(id, sourceID string, spec LayerSpec) error
	RemoveLayer(id string) error
}

// LayerSpec describes how a rendering layer draws its source.
type LayerSpec struct {
	// Type is the renderer layer type: symbol, fill, line, circle.
	Type string `json:"type"`
	// Paint carries renderer-specific paint properties.
	Paint map[string]interface{} `json:"paint,omitempty"`
}

// Layer pairs a layer id with its spec. A binder may own several rendering
// layers over one source (e.g. fill plus outline).
type Layer struct {
	ID   string
	Spec LayerSpec
}

// Binder state machine: Unmounted -> Bound -> Unbound, with data replacement
// only in Bound. All operations run on one goroutine per owning component;
// the binder itself is still locked so a teardown racing a late update can
// not corrupt state.
type binderState int

const (
	stateUnmounted binderState = iota
	stateBound
	stateUnbound
)

// ErrUnbound is returned when data is pushed to a torn-down binder.
var ErrUnbound = fmt.Errorf("maplayer: binder is unbound")

// Binder owns exactly one named source and its rendering layers. Source and
// layer ids derive from a stable per-component identity so concurrent mounts
// never collide.
type Binder struct {
	renderer Renderer
	sourceID string
	cluster  bool
	layers   []Layer

	mu    sync.Mutex
	state binderState
}

// NewBinder creates an unmounted binder for one logical layer.
func NewBinder(renderer Renderer, sourceID string, cluster bool, layers ...Layer) *Binder {
	return &Binder{
		renderer: renderer,
		sourceID: sourceID,
		cluster:  cluster,
		layers:   layers,
	}
}

// SourceID returns the stable source identity.
func (b *Binder) SourceID() string { return b.sourceID }

// Bind registers the source and layers with the renderer. It is idempotent
// and guards against the source or a layer already existing, because
// component remounts can race teardown of the previous instance.
func (b *Binder) Bind() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bindLocked()
}

func (b *Binder) bindLocked() error {
	if b.state == stateBound {
		return nil
	}
	if !b.renderer.HasSource(b.sourceID) {
		if err := b.renderer.AddSource(b.sourceID, b.cluster); err != nil {
			return fmt.Errorf("add source %s: %w", b.sourceID, err)
		}
	}
	for _, layer := range b.layers {
		if b.renderer.HasLayer(layer.ID) {
			continue
		}
		if err := b.renderer.AddLayer(layer.ID, b.sourceID, layer.Spec); err != nil {
			return fmt.Errorf("add layer %s: %w", layer.ID, err)
		}
	}
	b.state = stateBound
	return nil
}

// Update replaces the source dataset atomically, binding first if this is the
// first use. Rendered state is always a pure function of the latest feature
// array: no incremental patching, and a later Update simply wins.
func (b *Binder) Update(features []model.Feature) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateUnbound {
		return ErrUnbound
	}
	if err := b.bindLocked(); err != nil {
		return err
	}
	return b.renderer.SetSourceData(b.sourceID, model.NewFeatureCollection(features))
}

// Clear replaces the dataset with an empty collection.
func (b *Binder) Clear() error {
	return b.Update(nil)
}

// Unbind removes layers before the source (layers reference the source, so
// order matters). Unbinding an unmounted or already-unbound binder is a
// no-op; a re-render race must never panic here.
func (b *Binder) Unbind() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateBound {
		b.state = stateUnbound
		return
	}
	for _, layer := range b.layers {
		if b.renderer.HasLayer(layer.ID) {
			if err := b.renderer.RemoveLayer(layer.ID); err != nil {
				// Teardown is best effort; keep removing.
				continue
			}
		}
	}
	if b.renderer.HasSource(b.sourceID) {
		b.renderer.RemoveSource(b.sourceID)
	}
	b.state = stateUnbound
}

// Remount resets an unbound binder so it can be bound again by a new owning
// component instance.
func (b *Binder) Remount() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateUnbound {
		b.state = stateUnmounted
	}
}
