// Package testserver provides a configurable HTTP target for trying
// out runs against a local sink.
package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Server is a configurable HTTP sink target.
type Server struct {
	mux       *http.ServeMux
	requestID atomic.Int64
}

// NewServer creates a test server with all endpoints configured.
func NewServer() *Server {
	s := &Server{
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status/", s.handleStatus)
	s.mux.HandleFunc("/delay/", s.handleDelay)
	s.mux.HandleFunc("/echo", s.handleEcho)
	s.mux.HandleFunc("/fail-rate", s.handleFailRate)
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleStatus returns the specified HTTP status code.
// Example: POST /status/404 returns 404 Not Found
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/status/")
	code, err := strconv.Atoi(path)
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay waits for the specified duration before responding.
// Example: POST /delay/100 waits 100ms
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/delay/")
	ms, err := strconv.Atoi(path)
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"delayed_ms":%d}`, ms)
}

// handleEcho reflects the request body and headers back.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      s.requestID.Add(1),
		"method":  r.Method,
		"headers": headers,
		"body":    string(body),
	})
}

// handleFailRate fails a percentage of requests.
// Example: POST /fail-rate?percent=25 fails about a quarter of calls.
func (s *Server) handleFailRate(w http.ResponseWriter, r *http.Request) {
	percent, err := strconv.Atoi(r.URL.Query().Get("percent"))
	if err != nil || percent < 0 || percent > 100 {
		http.Error(w, "invalid percent", http.StatusBadRequest)
		return
	}
	if rand.Intn(100) < percent {
		http.Error(w, "simulated failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
