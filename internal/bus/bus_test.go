package bus

import (
	"context"
	"testing"
	"time"
)

func TestDispatchOutbound(t *testing.T) {
	b := NewMessageBus(10)

	received := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("test", func(msg OutboundMessage) {
		received <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{RoomID: "room-1", Content: "hello"}

	select {
	case msg := <-received:
		if msg.RoomID != "room-1" || msg.Content != "hello" {
			t.Errorf("msg = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received message")
	}
}

func TestDispatchOutboundMultipleSubscribers(t *testing.T) {
	b := NewMessageBus(10)

	first := make(chan OutboundMessage, 1)
	second := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("first", func(msg OutboundMessage) { first <- msg })
	b.SubscribeOutbound("second", func(msg OutboundMessage) { second <- msg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{RoomID: "room-1", Content: "fan out"}

	for name, ch := range map[string]chan OutboundMessage{"first": first, "second": second} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %s never received message", name)
		}
	}
}

func TestDispatchOutboundNoSubscribers(t *testing.T) {
	b := NewMessageBus(10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	// Must not block or panic
	b.Outbound <- OutboundMessage{RoomID: "room-1", Content: "dropped"}
	time.Sleep(50 * time.Millisecond)
}

func TestDispatchOutboundStopsOnContextCancel(t *testing.T) {
	b := NewMessageBus(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.DispatchOutbound(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not stop")
	}
}

func TestChatMessageTrigger(t *testing.T) {
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	msg := ChatMessage{RoomID: "room-1", SenderID: "user-1", Text: "hello", Timestamp: ts}

	trigger := msg.Trigger()
	if trigger.Source != SourceChat {
		t.Errorf("source = %v", trigger.Source)
	}
	if trigger.RoomID != "room-1" || trigger.SenderID != "user-1" {
		t.Errorf("trigger = %+v", trigger)
	}
	if trigger.Payload != "hello" || !trigger.OccurredAt.Equal(ts) {
		t.Errorf("trigger = %+v", trigger)
	}
}
