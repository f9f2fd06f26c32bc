// Package web provides an HTTP status server for the irrigation-guard daemon.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/sweeney/irrigation-guard/internal/status"
)

// Scheduler is the switch an operator re-enables after a safety stop.
type Scheduler interface {
	Enable() error
}

// Options carries the optional collaborators.
type Options struct {
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Scheduler enables POST /scheduler/enable when set.
	Scheduler Scheduler
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	scheduler  Scheduler
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, opts Options) *Server {
	s := &Server{tracker: tracker, scheduler: opts.Scheduler}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /index.json", s.handleJSON)
	mux.HandleFunc("POST /monitors/{name}/wake", s.handleWake)
	if opts.Scheduler != nil {
		mux.HandleFunc("POST /scheduler/enable", s.handleSchedulerEnable)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		log.Printf("http: render index: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleWake(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	m, ok := s.tracker.Monitor(name)
	if !ok {
		http.Error(w, "unknown monitor", http.StatusNotFound)
		return
	}
	m.RequestImmediateWake()
	log.Printf("http: wake requested for %s", name)
	writeJSON(w, http.StatusAccepted, map[string]string{"monitor": name, "result": "woken"})
}

func (s *Server) handleSchedulerEnable(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Enable(); err != nil {
		log.Printf("http: enable scheduler: %v", err)
		http.Error(w, "enable scheduler failed", http.StatusInternalServerError)
		return
	}
	log.Printf("http: scheduler re-enabled")
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
