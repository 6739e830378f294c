// Package filter gates inbound chat events before any context assembly or
// decision work is spent on them.
package filter

import (
	"github.com/Alpha200/ha-ai-tasker/internal/bus"
	"github.com/Alpha200/ha-ai-tasker/internal/session"
)

// Reason explains why an event was not admitted.
type Reason string

const (
	ReasonWrongRoom    Reason = "wrong-room"
	ReasonStale        Reason = "stale"
	ReasonSelfAuthored Reason = "self-authored"
)

// Verdict is the admission result for one chat event.
type Verdict struct {
	Admitted bool
	Reason   Reason
}

func admitted() Verdict              { return Verdict{Admitted: true} }
func rejected(reason Reason) Verdict { return Verdict{Reason: reason} }

// Admit decides whether a chat message is eligible for processing. It does
// no I/O. Checks run in order: room, staleness, self-authorship.
//
// Staleness is a strict comparison against the session start: an event
// timestamped exactly at startup is rejected, so events concurrent with
// startup are never double-processed. Self-authored events are rejected but
// still recorded into the per-room marker, so the bot does not re-evaluate
// its own echoes.
func Admit(msg bus.ChatMessage, state *session.State) Verdict {
	if msg.RoomID != state.ConfiguredRoomID() {
		return rejected(ReasonWrongRoom)
	}
	if !msg.Timestamp.After(state.StartedAt()) {
		return rejected(ReasonStale)
	}
	if msg.SenderID == state.OwnID() {
		state.MarkProcessed(msg.RoomID, msg.Timestamp)
		return rejected(ReasonSelfAuthored)
	}
	return admitted()
}
