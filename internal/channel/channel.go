// Package channel implements the chat surface: it delivers room messages
// into the message bus and pushes replies back out. The event-processing
// core consumes it only through the Channel interface.
package channel

import (
	"context"

	"github.com/Alpha200/ha-ai-tasker/internal/bus"
)

// Channel is one chat transport.
type Channel interface {
	Name() string
	// OwnID returns the bot's own sender id, valid after Start.
	OwnID() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}
