package bus

import "time"

// Source identifies which inbound path produced a trigger.
type Source int

const (
	SourceHTTP Source = iota
	SourceChat
)

func (s Source) String() string {
	if s == SourceChat {
		return "chat"
	}
	return "http"
}

// TriggerEvent is one inbound unit of work. Immutable once created.
type TriggerEvent struct {
	Source     Source
	Payload    string
	OccurredAt time.Time
	RoomID     string
	SenderID   string
}

// ChatMessage is what the chat surface delivers for every room message.
type ChatMessage struct {
	RoomID    string
	SenderID  string
	Text      string
	Timestamp time.Time
}

// Trigger converts a chat message into its trigger event.
func (m ChatMessage) Trigger() TriggerEvent {
	return TriggerEvent{
		Source:     SourceChat,
		Payload:    m.Text,
		OccurredAt: m.Timestamp,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
	}
}

// OutboundMessage is a reply or notification headed back to the chat surface.
type OutboundMessage struct {
	RoomID  string
	Content string
}
