package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Alpha200/ha-ai-tasker/internal/orchestrator"
)

// fakeHandler returns canned outcomes and records what it was asked.
type fakeHandler struct {
	processOutcome orchestrator.Outcome
	summaryOutcome orchestrator.Outcome
	payloads       []string
	langs          []string
}

func (f *fakeHandler) ProcessTrigger(ctx context.Context, payload string) orchestrator.Outcome {
	f.payloads = append(f.payloads, payload)
	return f.processOutcome
}

func (f *fakeHandler) Summarize(ctx context.Context, lang string) orchestrator.Outcome {
	f.langs = append(f.langs, lang)
	return f.summaryOutcome
}

func serve(t *testing.T, handler *fakeHandler, method, target, body string) (*http.Response, string) {
	t.Helper()
	srv := New("127.0.0.1", 0, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	resp := rec.Result()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestProcessSuccess(t *testing.T) {
	h := &fakeHandler{processOutcome: orchestrator.Outcome{Kind: orchestrator.ActionTaken, Text: "Notified."}}
	resp, body := serve(t, h, http.MethodPost, "/process", "Weather changed.")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != "success" {
		t.Errorf("body = %q", body)
	}
	if len(h.payloads) != 1 || h.payloads[0] != "Weather changed." {
		t.Errorf("payloads = %+v", h.payloads)
	}
}

func TestProcessNoAction(t *testing.T) {
	h := &fakeHandler{processOutcome: orchestrator.Outcome{Kind: orchestrator.NoAction}}
	resp, body := serve(t, h, http.MethodPost, "/process", "check")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even for no action", resp.StatusCode)
	}
	if body != "no action" {
		t.Errorf("body = %q", body)
	}
}

func TestProcessEmptyBody(t *testing.T) {
	h := &fakeHandler{processOutcome: orchestrator.Outcome{Kind: orchestrator.NoAction}}
	resp, _ := serve(t, h, http.MethodPost, "/process", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(h.payloads) != 1 || h.payloads[0] != "" {
		t.Errorf("payloads = %+v", h.payloads)
	}
}

func TestProcessMethodNotAllowed(t *testing.T) {
	h := &fakeHandler{}
	resp, _ := serve(t, h, http.MethodGet, "/process", "")

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if len(h.payloads) != 0 {
		t.Error("handler invoked for wrong method")
	}
}

func TestSummary(t *testing.T) {
	h := &fakeHandler{summaryOutcome: orchestrator.Outcome{Kind: orchestrator.ReplyText, Text: "One appointment today."}}
	resp, body := serve(t, h, http.MethodGet, "/summary?lang=de", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != "One appointment today." {
		t.Errorf("body = %q", body)
	}
	if len(h.langs) != 1 || h.langs[0] != "de" {
		t.Errorf("langs = %+v", h.langs)
	}
}

func TestSummaryNoAction(t *testing.T) {
	h := &fakeHandler{summaryOutcome: orchestrator.Outcome{Kind: orchestrator.NoAction}}
	resp, body := serve(t, h, http.MethodGet, "/summary", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != "no action" {
		t.Errorf("body = %q", body)
	}
	if len(h.langs) != 1 || h.langs[0] != "" {
		t.Errorf("langs = %+v", h.langs)
	}
}

func TestSummaryMethodNotAllowed(t *testing.T) {
	h := &fakeHandler{}
	resp, _ := serve(t, h, http.MethodPost, "/summary", "x")

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	h := &fakeHandler{}
	resp, body := serve(t, h, http.MethodGet, "/health", "")

	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("status = %d, body = %q", resp.StatusCode, body)
	}
}
