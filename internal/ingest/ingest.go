// Package ingest subscribes to the platform's live position stream on NATS
// and feeds decoded updates into the state store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"fleetview/internal/model"
	"fleetview/internal/state"
)

// SubjectPositions is the uplink subject carrying decoded device positions.
const SubjectPositions = "fleet.uplink.position"

// PositionMessage is the wire shape published by the platform gateway.
// Speed is in knots, course in degrees, timestamp in unix milliseconds.
type PositionMessage struct {
	DeviceID   uint                   `json:"device_id"`
	Lat        float64                `json:"lat"`
	Lon        float64                `json:"lon"`
	Speed      float64                `json:"speed"`
	Course     float64                `json:"course"`
	Altitude   float64                `json:"altitude"`
	Accuracy   float64                `json:"accuracy"`
	Timestamp  int64                  `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Decode converts a wire message into a store position.
func Decode(data []byte) (*model.Position, error) {
	var msg PositionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode position message: %w", err)
	}
	if msg.DeviceID == 0 {
		return nil, fmt.Errorf("position message without device id")
	}
	return &model.Position{
		DeviceID:   msg.DeviceID,
		Lat:        msg.Lat,
		Lon:        msg.Lon,
		Speed:      msg.Speed,
		Course:     msg.Course,
		Altitude:   msg.Altitude,
		Accuracy:   msg.Accuracy,
		FixTime:    time.UnixMilli(msg.Timestamp).UTC(),
		Attributes: msg.Attributes,
	}, nil
}

// Ingestor consumes the position subject into the store.
type Ingestor struct {
	nc    *nats.Conn
	store *state.Store
	sub   *nats.Subscription
}

// NewIngestor creates an ingestor bound to a NATS connection and store.
func NewIngestor(nc *nats.Conn, store *state.Store) *Ingestor {
	return &Ingestor{nc: nc, store: store}
}

// Start subscribes to the position subject. Malformed messages are logged
// and dropped; the subscription stays up.
func (i *Ingestor) Start(ctx context.Context) error {
	sub, err := i.nc.Subscribe(SubjectPositions, func(msg *nats.Msg) {
		pos, err := Decode(msg.Data)
		if err != nil {
			log.Printf("[Ingest] Dropping bad position message: %v", err)
			return
		}
		i.store.UpsertPosition(ctx, pos)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectPositions, err)
	}
	i.sub = sub
	log.Printf("[Ingest] Subscribed to %s", SubjectPositions)
	return nil
}

// Stop unsubscribes from the position subject.
func (i *Ingestor) Stop() {
	if i.sub != nil {
		i.sub.Unsubscribe()
		i.sub = nil
	}
}
