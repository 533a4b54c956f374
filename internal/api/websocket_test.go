package api

import (
	"encoding/json"
	"testing"
)

func TestHubBroadcastMessage(t *testing.T) {
	h := NewHub()
	h.Broadcast(ProgressMessage{
		Type:      "progress",
		Operation: "convert",
		File:      "poems.csv",
		Location:  `row 2, column "poem"`,
		Done:      1,
		Total:     3,
	})

	select {
	case data := <-h.broadcast:
		var msg ProgressMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Done != 1 || msg.Total != 3 || msg.Operation != "convert" {
			t.Errorf("message = %+v", msg)
		}
		if msg.Timestamp == "" {
			t.Error("timestamp not set")
		}
	default:
		t.Fatal("no message broadcast")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	fast := &Client{hub: h, send: make(chan []byte, 2)}
	slow := &Client{hub: h, send: make(chan []byte)} // full send channel
	h.register <- fast
	h.register <- slow

	h.Broadcast(ProgressMessage{Type: "progress", Operation: "check", Done: 1, Total: 1})

	// Receiving the fast client's copy means the broadcast case ran.
	// Registering another client then acts as a barrier: register is
	// unbuffered, so Run has finished the broadcast loop by the time the
	// send completes.
	<-fast.send
	h.register <- &Client{hub: h, send: make(chan []byte, 1)}

	if _, ok := <-slow.send; ok {
		t.Error("slow client's send channel not closed")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.clients[slow] {
		t.Error("slow client still registered")
	}
	if !h.clients[fast] {
		t.Error("fast client was dropped")
	}
}
