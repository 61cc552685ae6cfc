// Package icon resolves device/geofence icon references to renderer image
// keys and loads the backing assets exactly once per process.
package icon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultKey is the fallback icon registered for every renderer so a feature
// is never drawn without an icon.
const DefaultKey = "default"

// categoryKeys maps built-in device categories to icon keys. Unknown
// categories fall back to DefaultKey.
var categoryKeys = map[string]string{
	"car":        "car",
	"truck":      "truck",
	"van":        "van",
	"bus":        "bus",
	"motorcycle": "motorcycle",
	"bicycle":    "bicycle",
	"boat":       "boat",
	"person":     "person",
	"animal":     "animal",
	"plane":      "plane",
	"train":      "train",
	"tractor":    "tractor",
	"trailer":    "trailer",
	"crane":      "crane",
}

// ImageRegistry is the renderer-side image store. The production registry
// forwards registrations to the browser map over the feature stream.
type ImageRegistry interface {
	HasImage(key string) bool
	AddImage(key string, data []byte) error
}

// Resolver maps icon references to keys and lazily fetches the backing
// assets. The loaded set is process-wide and only cleared on restart, which
// is acceptable because icons are static assets.
type Resolver struct {
	registry ImageRegistry
	client   *http.Client
	baseURL  string

	mu     sync.Mutex
	loaded map[string]bool
}

// NewResolver creates a resolver fetching assets below baseURL.
func NewResolver(registry ImageRegistry, baseURL string) *Resolver {
	return &Resolver{
		registry: registry,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		loaded:   map[string]bool{},
	}
}

// Resolve maps a built-in category name or a custom icon filename reference
// to an icon key. Custom references keep their filename (minus extension)
// behind a "custom-" prefix so they can never collide with category keys.
func Resolve(ref string) string {
	if ref == "" {
		return DefaultKey
	}
	if key, ok := categoryKeys[strings.ToLower(ref)]; ok {
		return key
	}
	name := ref
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return DefaultKey
	}
	return "custom-" + name
}

// CustomKey reports whether key refers to a custom (operator-uploaded) icon.
func CustomKey(key string) bool {
	return strings.HasPrefix(key, "custom-")
}

// Loaded reports whether the icon is registered with the renderer.
func (r *Resolver) Loaded(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded[key]
}

// EnsureLoaded fetches and registers the icon asset if it is not loaded yet.
// It is idempotent and never returns an error: a failed fetch logs a warning
// and resolves false, and callers fall back to DefaultKey.
func (r *Resolver) EnsureLoaded(ctx context.Context, key string) bool {
	r.mu.Lock()
	if r.loaded[key] {
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	data, err := r.fetch(ctx, key)
	if err != nil {
		log.Printf("[Icon] Failed to load icon %q: %v", key, err)
		return false
	}
	if err := r.registry.AddImage(key, data); err != nil {
		log.Printf("[Icon] Failed to register icon %q: %v", key, err)
		return false
	}

	r.mu.Lock()
	r.loaded[key] = true
	r.mu.Unlock()
	return true
}

func (r *Resolver) fetch(ctx context.Context, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s.png", r.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
