package ingest

import (
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	data := []byte(`{
		"device_id": 42,
		"lat": 10.5,
		"lon": -20.25,
		"speed": 12.3,
		"course": 270,
		"timestamp": 1756300000000,
		"attributes": {"ignition": true}
	}`)

	pos, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pos.DeviceID != 42 || pos.Lat != 10.5 || pos.Lon != -20.25 {
		t.Errorf("position = %+v", pos)
	}
	if pos.Speed != 12.3 || pos.Course != 270 {
		t.Errorf("speed/course = %v/%v", pos.Speed, pos.Course)
	}
	if want := time.UnixMilli(1756300000000).UTC(); !pos.FixTime.Equal(want) {
		t.Errorf("fix time = %v, want %v", pos.FixTime, want)
	}
	if !pos.Ignition() {
		t.Error("ignition attribute lost in decode")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("malformed JSON accepted")
	}
	if _, err := Decode([]byte(`{"lat": 1, "lon": 2}`)); err == nil {
		t.Error("message without device id accepted")
	}
}
