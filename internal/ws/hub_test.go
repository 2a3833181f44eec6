package ws

import (
	"encoding/json"
	"testing"
)

func newTestClient(userID int64, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, 4),
		Hub:    hub,
		Done:   make(chan struct{}),
	}
}

func TestNotifyReachesAllUserConnections(t *testing.T) {
	hub := NewHub()
	a := newTestClient(1, hub)
	b := newTestClient(1, hub)
	other := newTestClient(2, hub)
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	hub.Notify(1, EventTaskCompleted, TaskCompletedPayload{TaskID: 3, RewardPaid: 8000})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			var env Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				t.Fatal(err)
			}
			if env.Type != EventTaskCompleted {
				t.Fatalf("got type %q", env.Type)
			}
		default:
			t.Fatal("connection did not receive the event")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("event leaked to another user")
	default:
	}
}

func TestNotifySkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1, hub)
	c.Send = make(chan []byte) // unbuffered, nobody reading
	hub.Register(c)

	// must not block
	hub.Notify(1, EventBalance, BalancePayload{Currency: 100})
}

func TestUnregisterDropsUser(t *testing.T) {
	hub := NewHub()
	c := newTestClient(7, hub)
	hub.Register(c)
	if hub.Connected() != 1 {
		t.Fatalf("connected = %d, want 1", hub.Connected())
	}
	hub.Unregister(c)
	if hub.Connected() != 0 {
		t.Fatalf("connected = %d, want 0", hub.Connected())
	}

	hub.Notify(7, EventBalance, BalancePayload{})
	select {
	case <-c.Send:
		t.Fatal("unregistered client received event")
	default:
	}
}
