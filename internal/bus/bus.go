package bus

import (
	"context"
	"log"
	"sync"
)

// MessageBus carries chat messages into the gateway and replies back out.
type MessageBus struct {
	Inbound  chan ChatMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 1
	}
	return &MessageBus{
		Inbound:     make(chan ChatMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string]func(OutboundMessage)),
	}
}

// SubscribeOutbound registers a named sink for outbound messages.
func (b *MessageBus) SubscribeOutbound(name string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[name] = fn
}

// DispatchOutbound fans outbound messages to all subscribers until ctx ends.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			sinks := make([]func(OutboundMessage), 0, len(b.subscribers))
			for _, fn := range b.subscribers {
				sinks = append(sinks, fn)
			}
			b.mu.RUnlock()
			if len(sinks) == 0 {
				log.Printf("[bus] dropped outbound for %s: no subscribers", msg.RoomID)
				continue
			}
			for _, fn := range sinks {
				fn(msg)
			}
		case <-ctx.Done():
			return
		}
	}
}
