package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"turbine-monitor/internal/storage"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroadcastAlertReachesClients(t *testing.T) {
	hub := testHub()
	client := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.register(client)

	hub.BroadcastAlert(storage.AlertRecord{ID: "a1", TurbineID: "t1", Severity: "HIGH"})

	select {
	case payload := <-client.send:
		var msg struct {
			Type    string              `json:"type"`
			Payload storage.AlertRecord `json:"payload"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("invalid broadcast payload: %v", err)
		}
		if msg.Type != "alert" || msg.Payload.ID != "a1" {
			t.Fatalf("unexpected broadcast: %+v", msg)
		}
	default:
		t.Fatalf("expected a broadcast message")
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := testHub()
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.register(slow)

	hub.BroadcastAlert(storage.AlertRecord{ID: "a1"})

	if hub.clientCount() != 0 {
		t.Fatalf("expected slow client to be dropped")
	}
	if _, ok := <-slow.send; ok {
		t.Fatalf("expected send channel to be closed")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := testHub()
	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register(client)
	hub.unregister(client)
	hub.unregister(client)
	if hub.clientCount() != 0 {
		t.Fatalf("expected no clients")
	}
}
