package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const DefaultHistorySize = 10

// HistoryEntry is one remembered chat line. Own messages are kept too so
// replies sent through other apps stay part of the conversation.
type HistoryEntry struct {
	Sender    string
	Message   string
	Timestamp time.Time
}

// History is a bounded ring of recent chat messages.
type History struct {
	mu      sync.Mutex
	max     int
	entries []HistoryEntry
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

func (h *History) Append(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Format renders the recent conversation for the chat decision profile.
// systemUsername, when set, relabels that sender as "system".
func (h *History) Format(systemUsername string) string {
	entries := h.Entries()
	if len(entries) == 0 {
		return "No previous conversation history."
	}

	var sb strings.Builder
	sb.WriteString("Recent conversation history:\n")
	for _, e := range entries {
		name := strings.TrimPrefix(e.Sender, "@")
		if idx := strings.Index(name, ":"); idx >= 0 {
			name = name[:idx]
		}
		if systemUsername != "" && name == systemUsername {
			name = "system"
		}
		fmt.Fprintf(&sb, "%s: %s\n", name, e.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}
