// Package render forwards map source/layer/image operations to browser
// clients over the feature stream, keeping an authoritative copy so late
// joiners can replay the current map state.
package render

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"sync"

	"fleetview/internal/maplayer"
	"fleetview/internal/model"
)

// Broadcaster delivers an encoded op message to all connected stream clients.
type Broadcaster interface {
	Broadcast(data []byte)
}

// Op is one renderer operation on the wire.
type Op struct {
	Op       string                   `json:"op"`
	ID       string                   `json:"id"`
	SourceID string                   `json:"source_id,omitempty"`
	Cluster  bool                     `json:"cluster,omitempty"`
	Spec     *maplayer.LayerSpec      `json:"spec,omitempty"`
	Data     *model.FeatureCollection `json:"data,omitempty"`
	Image    string                   `json:"image,omitempty"`
}

const (
	opAddSource    = "add_source"
	opSetData      = "set_data"
	opRemoveSource = "remove_source"
	opAddLayer     = "add_layer"
	opRemoveLayer  = "remove_layer"
	opAddImage     = "add_image"
)

type sourceState struct {
	cluster bool
	data    model.FeatureCollection
}

type layerState struct {
	sourceID string
	spec     maplayer.LayerSpec
}

// RemoteRenderer implements the renderer and image registry against remote
// browser maps. Every mutation is mirrored locally and broadcast; Snapshot
// replays the mirror for a newly connected client so its map converges to
// the same state without a full resync round-trip.
type RemoteRenderer struct {
	broadcaster Broadcaster

	mu         sync.Mutex
	sources    map[string]*sourceState
	layers     map[string]layerState
	layerOrder []string
	images     map[string][]byte
	imageOrder []string
}

// NewRemoteRenderer creates a renderer broadcasting over b.
func NewRemoteRenderer(b Broadcaster) *RemoteRenderer {
	return &RemoteRenderer{
		broadcaster: b,
		sources:     make(map[string]*sourceState),
		layers:      make(map[string]layerState),
		images:      make(map[string][]byte),
	}
}

func (r *RemoteRenderer) send(op Op) {
	data, err := json.Marshal(op)
	if err != nil {
		log.Printf("[Render] Failed to encode %s op for %s: %v", op.Op, op.ID, err)
		return
	}
	r.broadcaster.Broadcast(data)
}

// HasSource reports whether the source exists.
func (r *RemoteRenderer) HasSource(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sources[id]
	return ok
}

// AddSource creates an empty geojson source.
func (r *RemoteRenderer) AddSource(id string, cluster bool) error {
	r.mu.Lock()
	r.sources[id] = &sourceState{cluster: cluster, data: model.NewFeatureCollection(nil)}
	r.mu.Unlock()
	r.send(Op{Op: opAddSource, ID: id, Cluster: cluster})
	return nil
}

// SetSourceData replaces the source's dataset.
func (r *RemoteRenderer) SetSourceData(id string, data model.FeatureCollection) error {
	r.mu.Lock()
	if s, ok := r.sources[id]; ok {
		s.data = data
	}
	r.mu.Unlock()
	r.send(Op{Op: opSetData, ID: id, Data: &data})
	return nil
}

// RemoveSource drops a source.
func (r *RemoteRenderer) RemoveSource(id string) error {
	r.mu.Lock()
	delete(r.sources, id)
	r.mu.Unlock()
	r.send(Op{Op: opRemoveSource, ID: id})
	return nil
}

// HasLayer reports whether the layer exists.
func (r *RemoteRenderer) HasLayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.layers[id]
	return ok
}

// AddLayer attaches a rendering layer to a source. Layer insertion order is
// preserved because it is the paint order on the map.
func (r *RemoteRenderer) AddLayer(id, sourceID string, spec maplayer.LayerSpec) error {
	r.mu.Lock()
	if _, ok := r.layers[id]; !ok {
		r.layerOrder = append(r.layerOrder, id)
	}
	r.layers[id] = layerState{sourceID: sourceID, spec: spec}
	r.mu.Unlock()
	r.send(Op{Op: opAddLayer, ID: id, SourceID: sourceID, Spec: &spec})
	return nil
}

// RemoveLayer drops a rendering layer.
func (r *RemoteRenderer) RemoveLayer(id string) error {
	r.mu.Lock()
	if _, ok := r.layers[id]; ok {
		delete(r.layers, id)
		for i, lid := range r.layerOrder {
			if lid == id {
				r.layerOrder = append(r.layerOrder[:i], r.layerOrder[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()
	r.send(Op{Op: opRemoveLayer, ID: id})
	return nil
}

// HasImage reports whether the image key is registered.
func (r *RemoteRenderer) HasImage(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.images[key]
	return ok
}

// AddImage registers an icon asset under key.
func (r *RemoteRenderer) AddImage(key string, data []byte) error {
	r.mu.Lock()
	if _, ok := r.images[key]; !ok {
		r.imageOrder = append(r.imageOrder, key)
	}
	r.images[key] = data
	r.mu.Unlock()
	r.send(Op{Op: opAddImage, ID: key, Image: base64.StdEncoding.EncodeToString(data)})
	return nil
}

// Snapshot returns the op sequence that reconstructs the current map state:
// images first, then sources with their data, then layers in paint order.
// Each op is returned pre-encoded for direct delivery to one client.
func (r *RemoteRenderer) Snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ops []Op
	for _, key := range r.imageOrder {
		if data, ok := r.images[key]; ok {
			ops = append(ops, Op{Op: opAddImage, ID: key, Image: base64.StdEncoding.EncodeToString(data)})
		}
	}
	for id, s := range r.sources {
		data := s.data
		ops = append(ops, Op{Op: opAddSource, ID: id, Cluster: s.cluster})
		ops = append(ops, Op{Op: opSetData, ID: id, Data: &data})
	}
	for _, id := range r.layerOrder {
		l, ok := r.layers[id]
		if !ok {
			continue
		}
		spec := l.spec
		ops = append(ops, Op{Op: opAddLayer, ID: id, SourceID: l.sourceID, Spec: &spec})
	}

	out := make([][]byte, 0, len(ops))
	for _, op := range ops {
		data, err := json.Marshal(op)
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}
