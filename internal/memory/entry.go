package memory

import (
	"fmt"
	"strings"
	"time"
)

// Kind separates memories meant for the user from internal agent notes.
type Kind string

const (
	KindUser   Kind = "user"
	KindSystem Kind = "system"
)

// SystemRetention is the fixed lifetime of system memories. Entries older
// than this are excluded from context assembly even if the backend has not
// purged them yet.
const SystemRetention = 12 * time.Hour

// Entry is one memory record. Identity is owned by the backend; this core
// never addresses entries individually.
type Entry struct {
	Kind      Kind
	Content   string
	CreatedAt time.Time
	ExpiresAt time.Time // zero means never
}

// NewEntry builds an entry, stamping system entries with their retention.
func NewEntry(kind Kind, content string, now time.Time) Entry {
	e := Entry{Kind: kind, Content: content, CreatedAt: now}
	if kind == KindSystem {
		e.ExpiresAt = now.Add(SystemRetention)
	}
	return e
}

// Expired reports whether the entry must be excluded from assembly at now.
// User entries never expire by age.
func (e Entry) Expired(now time.Time) bool {
	if e.Kind != KindSystem {
		return false
	}
	expiry := e.ExpiresAt
	if expiry.IsZero() {
		expiry = e.CreatedAt.Add(SystemRetention)
	}
	return !now.Before(expiry)
}

// Fresh filters out expired entries, preserving order.
func Fresh(entries []Entry, now time.Time) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Expired(now) {
			out = append(out, e)
		}
	}
	return out
}

// Format renders entries as a prompt block for the decision step.
func Format(entries []Entry) string {
	if len(entries) == 0 {
		return "No stored memories."
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- [%s] %s (stored %s)\n", e.Kind, e.Content, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(sb.String(), "\n")
}
