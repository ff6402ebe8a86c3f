// Package bridge runs the localhost endpoint browser extensions push URLs
// to. It only validates and forwards: the host decides what to do with each
// request by draining the add channel.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// DefaultAddr is where the bridge listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:47891"

// AddRequest is one accepted add-URL request.
type AddRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Server is the localhost bridge.
type Server struct {
	addr     string
	requests chan<- AddRequest
	srv      *http.Server
}

// New creates a bridge publishing accepted requests to the given channel.
// Publishing never blocks; when the host falls behind, requests are dropped.
func New(addr string, requests chan<- AddRequest) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{addr: addr, requests: requests}

	mux := http.NewServeMux()
	mux.HandleFunc("/add", s.handleAdd)
	mux.HandleFunc("/health", handleHealth)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start binds the listener and serves in the background. The bind happens
// synchronously so a port conflict surfaces to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bridge listen on %s: %w", s.addr, err)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			utils.Debug("bridge server: %v", err)
		}
	}()
	utils.Debug("bridge listening on %s", s.addr)
	return nil
}

// Shutdown stops the bridge gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the bridge's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Allow-Methods", "*")
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		// Browser preflight for the extension's cross-origin POST.
		setCORS(w)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		add := AddRequest{ID: uuid.New().String(), URL: req.URL}
		select {
		case s.requests <- add:
			utils.Debug("bridge accepted %s: %s", add.ID, add.URL)
		default:
			utils.Debug("bridge dropped %s: host not draining", add.ID)
		}
		setCORS(w)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
