package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	q := NewInMemory(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"id": "x1"})
	if err := q.Publish(ctx, Message{Type: "alert_outcome", Body: body}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	select {
	case msg := <-msgs:
		if msg.Type != "alert_outcome" {
			t.Errorf("type = %q", msg.Type)
		}
		var decoded map[string]string
		if err := json.Unmarshal(msg.Body, &decoded); err != nil || decoded["id"] != "x1" {
			t.Errorf("body = %q, decode err %v", msg.Body, err)
		}
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestInMemoryPublishRespectsContext(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	_ = q.Publish(ctx, Message{Type: "a"})

	// Queue is full; a cancelled context must unblock the publisher.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(cancelled, Message{Type: "b"}); err == nil {
		t.Error("Publish() on full queue with cancelled context expected error")
	}
}
