package session

import (
	"sync"
	"time"
)

// State is the only process-wide mutable state. It is created once at
// startup and threaded by handle through both processing paths; mutation
// funnels through the message filter and the decision orchestrator.
type State struct {
	ownID            string
	startedAt        time.Time
	configuredRoomID string

	mu               sync.RWMutex
	lastProcessed    map[string]time.Time
	lastNotification string
}

func NewState(ownID, configuredRoomID string, startedAt time.Time) *State {
	return &State{
		ownID:            ownID,
		startedAt:        startedAt,
		configuredRoomID: configuredRoomID,
		lastProcessed:    make(map[string]time.Time),
		lastNotification: "No previous notifications.",
	}
}

func (s *State) OwnID() string { return s.ownID }

// SetOwnID fills in the bot identity once the chat surface has logged in.
// Called once during startup, before any event is processed.
func (s *State) SetOwnID(id string) { s.ownID = id }

func (s *State) StartedAt() time.Time { return s.startedAt }

func (s *State) ConfiguredRoomID() string { return s.configuredRoomID }

// LastProcessed returns the marker for a room and whether one exists.
func (s *State) LastProcessed(roomID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.lastProcessed[roomID]
	return ts, ok
}

// MarkProcessed records the timestamp of the latest handled event per room.
func (s *State) MarkProcessed(roomID string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProcessed[roomID] = ts
}

// LastNotification returns the text of the most recent autonomous
// notification, fed back into the next autonomous decision.
func (s *State) LastNotification() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastNotification
}

func (s *State) SetLastNotification(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNotification = text
}
