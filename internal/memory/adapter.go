package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"
)

const (
	readToolName  = "memory_read"
	writeToolName = "memory_write"

	defaultDialTimeout = 10 * time.Second
)

// ReadResult is a soft-fail read: an unreachable backend yields an empty
// entry list with BackendUnavailable set instead of an error.
type ReadResult struct {
	Entries            []Entry
	BackendUnavailable bool
}

// WriteResult reports whether a write reached the backend.
type WriteResult struct {
	Acknowledged bool
	Skipped      bool
	Reason       string
}

// toolCaller is the slice of mcp.ClientSession the adapter needs; tests
// substitute a fake.
type toolCaller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// connectFunc dials the backend and returns a live session.
type connectFunc func(ctx context.Context) (toolCaller, error)

// Adapter provides typed memory access over an external MCP backend that
// may be absent. Every call round-trips; there is no local cache.
type Adapter struct {
	endpoint    string
	dialTimeout time.Duration
	connect     connectFunc

	mu      sync.Mutex
	session toolCaller
}

// NewAdapter creates an adapter for the given MCP SSE endpoint. An empty
// endpoint is valid: every call then degrades to backend-unavailable.
func NewAdapter(endpoint string) *Adapter {
	a := &Adapter{
		endpoint:    endpoint,
		dialTimeout: defaultDialTimeout,
	}
	a.connect = a.dial
	return a
}

// NewAdapterWithConnect creates an adapter with a custom dialer (for testing).
func NewAdapterWithConnect(endpoint string, connect connectFunc) *Adapter {
	a := NewAdapter(endpoint)
	if connect != nil {
		a.connect = connect
	}
	return a
}

func (a *Adapter) dial(ctx context.Context) (toolCaller, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "ha-ai-tasker",
		Version: "0.1.0",
	}, nil)
	session, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: a.endpoint}, nil)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ensureSession lazily connects, reusing a live session across calls.
func (a *Adapter) ensureSession(ctx context.Context) (toolCaller, error) {
	if a.endpoint == "" {
		return nil, fmt.Errorf("memory backend not configured")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		return a.session, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, a.dialTimeout)
	defer cancel()
	session, err := a.connect(dialCtx)
	if err != nil {
		return nil, fmt.Errorf("connect memory backend: %w", err)
	}
	a.session = session
	return session, nil
}

// dropSession discards a session after a failed call so the next call
// re-dials instead of reusing a dead connection.
func (a *Adapter) dropSession(failed toolCaller) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == failed && a.session != nil {
		_ = a.session.Close()
		a.session = nil
	}
}

// Read fetches all entries of one kind. Retention filtering is the
// caller's concern (the assembler applies it against its own clock).
func (a *Adapter) Read(ctx context.Context, kind Kind) ReadResult {
	session, err := a.ensureSession(ctx)
	if err != nil {
		log.Printf("[memory] read %s unavailable: %v", kind, err)
		return ReadResult{BackendUnavailable: true}
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      readToolName,
		Arguments: map[string]any{"kind": string(kind)},
	})
	if err != nil {
		log.Printf("[memory] read %s failed: %v", kind, err)
		a.dropSession(session)
		return ReadResult{BackendUnavailable: true}
	}
	if res == nil || res.IsError {
		log.Printf("[memory] read %s: backend returned error result", kind)
		return ReadResult{BackendUnavailable: true}
	}

	return ReadResult{Entries: parseEntries(resultText(res), kind)}
}

// Write stores one entry. An unreachable backend yields Skipped, never an
// error: memory writes are best-effort by contract.
func (a *Adapter) Write(ctx context.Context, entry Entry) WriteResult {
	session, err := a.ensureSession(ctx)
	if err != nil {
		log.Printf("[memory] write skipped: %v", err)
		return WriteResult{Skipped: true, Reason: "backendUnavailable"}
	}

	args := map[string]any{
		"kind":       string(entry.Kind),
		"content":    entry.Content,
		"created_at": entry.CreatedAt.Format(time.RFC3339),
	}
	if !entry.ExpiresAt.IsZero() {
		args["expires_at"] = entry.ExpiresAt.Format(time.RFC3339)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      writeToolName,
		Arguments: args,
	})
	if err != nil {
		log.Printf("[memory] write failed: %v", err)
		a.dropSession(session)
		return WriteResult{Skipped: true, Reason: "backendUnavailable"}
	}
	if res != nil && res.IsError {
		return WriteResult{Skipped: true, Reason: "backendRejected"}
	}
	return WriteResult{Acknowledged: true}
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}

func resultText(res *mcp.CallToolResult) string {
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok && tc.Text != "" {
			return tc.Text
		}
	}
	return ""
}

// parseEntries decodes the backend's JSON entries array. The backend owns
// the schema; anything unparseable is dropped rather than failing the read.
func parseEntries(text string, fallback Kind) []Entry {
	if text == "" {
		return nil
	}
	parsed := gjson.Parse(text)
	items := parsed
	if parsed.IsObject() {
		items = parsed.Get("entries")
	}
	if !items.IsArray() {
		return nil
	}

	var entries []Entry
	items.ForEach(func(_, item gjson.Result) bool {
		content := item.Get("content").String()
		if content == "" {
			return true
		}
		kind := Kind(item.Get("kind").String())
		if kind != KindUser && kind != KindSystem {
			kind = fallback
		}
		entry := Entry{Kind: kind, Content: content}
		if createdAt := item.Get("created_at").String(); createdAt != "" {
			if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
				entry.CreatedAt = ts
			}
		}
		if expiresAt := item.Get("expires_at").String(); expiresAt != "" {
			if ts, err := time.Parse(time.RFC3339, expiresAt); err == nil {
				entry.ExpiresAt = ts
			}
		} else if kind == KindSystem && !entry.CreatedAt.IsZero() {
			entry.ExpiresAt = entry.CreatedAt.Add(SystemRetention)
		}
		entries = append(entries, entry)
		return true
	})
	return entries
}
