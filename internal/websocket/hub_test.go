package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	msg := NewMessage("submission", "created", 42, map[string]any{"unread": float64(3)})
	hub.Broadcast(msg)

	for i, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("client %d: unmarshal: %v", i+1, err)
			}
			if got.Type != "submission_created" {
				t.Errorf("client %d: type = %q", i+1, got.Type)
			}
			if got.ID != 42 {
				t.Errorf("client %d: id = %d", i+1, got.ID)
			}
			if got.Extra["unread"] != float64(3) {
				t.Errorf("client %d: extra = %v", i+1, got.Extra)
			}
		default:
			t.Fatalf("client %d did not receive broadcast", i+1)
		}
	}
}

func TestBroadcastSkipsFullClient(t *testing.T) {
	hub := NewHub(slog.Default())

	slow := mockClient(hub)
	hub.Register(slow)

	// Fill the slow client's buffer; further broadcasts must not block.
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(NewMessage("project", "updated", int64(i), nil))
	}

	if got := len(slow.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
}

func TestNewMessageType(t *testing.T) {
	msg := NewMessage("project", "liked", 7, nil)
	if msg.Type != "project_liked" {
		t.Errorf("type = %q, want project_liked", msg.Type)
	}
	if msg.Entity != "project" || msg.Action != "liked" {
		t.Errorf("entity/action = %q/%q", msg.Entity, msg.Action)
	}
}
