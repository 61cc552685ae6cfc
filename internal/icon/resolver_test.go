package icon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type fakeRegistry struct {
	images map[string][]byte
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{images: map[string][]byte{}}
}

func (f *fakeRegistry) HasImage(key string) bool {
	_, ok := f.images[key]
	return ok
}

func (f *fakeRegistry) AddImage(key string, data []byte) error {
	f.images[key] = data
	return nil
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"Empty", "", DefaultKey},
		{"Category", "truck", "truck"},
		{"Category Mixed Case", "Truck", "truck"},
		{"Unknown Category Becomes Custom", "excavator", "custom-excavator"},
		{"Custom Filename", "fleet-logo.png", "custom-fleet-logo"},
		{"Custom Path", "uploads/icons/fleet-logo.svg", "custom-fleet-logo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.ref); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.expected)
			}
		})
	}
}

func TestEnsureLoadedIdempotent(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	reg := newFakeRegistry()
	r := NewResolver(reg, srv.URL)

	if !r.EnsureLoaded(context.Background(), "truck") {
		t.Fatal("first EnsureLoaded returned false")
	}
	if !r.EnsureLoaded(context.Background(), "truck") {
		t.Fatal("second EnsureLoaded returned false")
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("asset fetched %d times, want 1", n)
	}
	if !reg.HasImage("truck") {
		t.Error("icon not registered with the renderer")
	}
	if !r.Loaded("truck") {
		t.Error("Loaded() = false after successful load")
	}
}

func TestEnsureLoadedFailureResolvesFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(newFakeRegistry(), srv.URL)

	if r.EnsureLoaded(context.Background(), "custom-missing") {
		t.Error("EnsureLoaded returned true for a missing asset")
	}
	if r.Loaded("custom-missing") {
		t.Error("failed icon must not be marked loaded")
	}
	// A later retry is allowed once the asset appears.
	if r.EnsureLoaded(context.Background(), "custom-missing") {
		t.Error("EnsureLoaded returned true while asset is still missing")
	}
}
