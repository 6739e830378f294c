// Package server exposes the HTTP trigger surface. Callers always receive
// a well-formed response; processing failures surface as "no action".
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Alpha200/ha-ai-tasker/internal/orchestrator"
)

// TriggerHandler is the gateway surface the HTTP layer invokes.
type TriggerHandler interface {
	ProcessTrigger(ctx context.Context, payload string) orchestrator.Outcome
	Summarize(ctx context.Context, lang string) orchestrator.Outcome
}

type Server struct {
	host    string
	port    int
	handler TriggerHandler
	server  *http.Server
}

func New(host string, port int, handler TriggerHandler) *Server {
	return &Server{host: host, port: port, handler: handler}
}

// Handler builds the route mux (exposed for httptest).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", s.handleProcess)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
	}

	go func() {
		log.Printf("[server] listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[server] error: %v", err)
		}
	}()
	return nil
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
	log.Printf("[server] stopped")
	return nil
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}

	outcome := s.handler.ProcessTrigger(r.Context(), string(body))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if outcome.Kind == orchestrator.NoAction {
		fmt.Fprint(w, "no action")
		return
	}
	fmt.Fprint(w, "success")
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	outcome := s.handler.Summarize(r.Context(), r.URL.Query().Get("lang"))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if outcome.Kind == orchestrator.NoAction {
		fmt.Fprint(w, "no action")
		return
	}
	fmt.Fprint(w, outcome.Text)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}
