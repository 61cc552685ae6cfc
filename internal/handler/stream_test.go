package handler

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type fakeSnapshotter struct {
	ops [][]byte
}

func (f fakeSnapshotter) Snapshot() [][]byte { return f.ops }

func newStreamServer(t *testing.T, hub *StreamHub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/stream", NewStreamHandler(hub).HandleStream)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/stream"
}

func waitForClients(t *testing.T, hub *StreamHub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// A snapshot larger than the client send buffer must still replay in full and
// must not wedge the connection before it joins the broadcast set.
func TestHandleStreamReplaysLargeSnapshot(t *testing.T) {
	ops := make([][]byte, 300)
	for i := range ops {
		ops[i] = []byte(fmt.Sprintf(`{"op":"add_layer","id":"layer-%03d"}`, i))
	}

	hub := NewStreamHub()
	hub.SetSnapshotter(fakeSnapshotter{ops: ops})
	go hub.Run()
	defer hub.Stop()

	url := newStreamServer(t, hub)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := range ops {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read snapshot op %d: %v", i, err)
		}
		if string(msg) != string(ops[i]) {
			t.Fatalf("snapshot op %d = %q, want %q", i, msg, ops[i])
		}
	}

	waitForClients(t, hub, 1)
}

func TestHandleStreamSnapshotPrecedesLiveOps(t *testing.T) {
	hub := NewStreamHub()
	hub.SetSnapshotter(fakeSnapshotter{ops: [][]byte{
		[]byte(`{"op":"add_source","id":"positions"}`),
		[]byte(`{"op":"add_layer","id":"positions-symbols"}`),
	}})
	go hub.Run()
	defer hub.Stop()

	url := newStreamServer(t, hub)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for _, want := range []string{"add_source", "add_layer"} {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read snapshot op: %v", err)
		}
		if !strings.Contains(string(msg), want) {
			t.Fatalf("snapshot op = %q, want %q op", msg, want)
		}
	}

	// Live ops only flow once the client has joined the broadcast set.
	waitForClients(t, hub, 1)
	hub.Broadcast([]byte(`{"op":"set_data","id":"positions"}`))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read live op: %v", err)
	}
	if !strings.Contains(string(msg), "set_data") {
		t.Fatalf("live op = %q, want set_data after snapshot", msg)
	}
}
