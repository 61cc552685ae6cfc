// Package client consumes the fleet platform REST API: geofence collections,
// geofence groups and history reports.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"fleetview/internal/model"
)

// Client talks to the platform backend. Transient fetch failures on the
// geofence endpoints are logged and surfaced as empty result sets so the
// console stays interactive; report fetches return their error to the caller.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the platform API below baseURL. token, when set,
// is sent as a bearer Authorization header on every request (the session
// itself is owned by the platform, not this service).
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Geofences fetches markers, routes and zones in parallel and combines them
// into one collection. The three fetches are independent and unordered; the
// combined result is only assembled after all of them complete. A failed
// fetch contributes an empty slice.
func (c *Client) Geofences(ctx context.Context) []*model.Geofence {
	paths := []string{"/api/markers", "/api/routes", "/api/zones"}
	parts := make([][]*model.Geofence, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			var out []*model.Geofence
			if err := c.getJSON(ctx, path, nil, &out); err != nil {
				log.Printf("[Client] Failed to fetch %s: %v", path, err)
				return
			}
			parts[i] = out
		}(i, path)
	}
	wg.Wait()

	var combined []*model.Geofence
	for _, part := range parts {
		combined = append(combined, part...)
	}
	return combined
}

// Groups fetches geofence groups and prepends the synthetic Ungrouped entry.
// The synthetic id must never travel back to the backend; callers writing a
// group reference use Geofence.WireGroupID.
func (c *Client) Groups(ctx context.Context) []model.Group {
	var fetched []model.Group
	if err := c.getJSON(ctx, "/api/geofence-groups", nil, &fetched); err != nil {
		log.Printf("[Client] Failed to fetch geofence groups: %v", err)
		fetched = nil
	}

	groups := make([]model.Group, 0, len(fetched)+1)
	groups = append(groups, model.Group{ID: model.UngroupedID, Name: "Ungrouped"})
	for _, g := range fetched {
		if g.ID == model.UngroupedID {
			// The backend must not own the reserved pseudo-group id.
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

// CombinedReport fetches one device's history: full positions, a
// coordinate-only route and event markers.
func (c *Client) CombinedReport(ctx context.Context, deviceID uint, from, to time.Time) ([]model.CombinedReport, error) {
	var out []model.CombinedReport
	err := c.getJSON(ctx, "/api/reports/combined", reportQuery(deviceID, from, to), &out)
	if err != nil {
		return nil, fmt.Errorf("combined report for device %d: %w", deviceID, err)
	}
	return out, nil
}

// StopsReport fetches detected stops for one device.
func (c *Client) StopsReport(ctx context.Context, deviceID uint, from, to time.Time) ([]model.StopReport, error) {
	var out []model.StopReport
	err := c.getJSON(ctx, "/api/reports/stops", reportQuery(deviceID, from, to), &out)
	if err != nil {
		return nil, fmt.Errorf("stops report for device %d: %w", deviceID, err)
	}
	return out, nil
}

// Devices fetches the device list.
func (c *Client) Devices(ctx context.Context) ([]*model.Device, error) {
	var out []*model.Device
	if err := c.getJSON(ctx, "/api/devices", nil, &out); err != nil {
		return nil, fmt.Errorf("device list: %w", err)
	}
	return out, nil
}

func reportQuery(deviceID uint, from, to time.Time) url.Values {
	q := url.Values{}
	q.Set("deviceId", strconv.FormatUint(uint64(deviceID), 10))
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	return q
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
