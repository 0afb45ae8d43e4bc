// ABOUTME: HTTP diagnostics server for inspecting the holder slot
// ABOUTME: Serves metrics, the current occupant, snapshots, and on-demand probes

// Package diag exposes the registry's diagnostic boundary over HTTP.
package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prateek/leaksentinel/internal/logging"
	"github.com/prateek/leaksentinel/sentinel"
	"github.com/prateek/leaksentinel/snapshot"
)

// Holder describes the current occupant of the slot.
type Holder struct {
	OwnerID   string `json:"ownerId"`
	Owner     string `json:"owner,omitempty"`
	Strategy  string `json:"strategy"`
	Destroyed bool   `json:"destroyed"`
}

// Server serves diagnostics for one probe and its registry.
type Server struct {
	mu        sync.RWMutex
	addr      string
	boundAddr string
	server    *http.Server
	probe     *sentinel.Probe
	gatherer  prometheus.Gatherer
	log       *logging.Logger
}

// NewServer creates a diagnostics server. A nil gatherer serves the default
// Prometheus registry.
func NewServer(addr string, probe *sentinel.Probe, gatherer prometheus.Gatherer, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		addr:     addr,
		probe:    probe,
		gatherer: gatherer,
		log:      log,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	} else {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/holder", s.handleHolder).Methods(http.MethodGet)
	r.HandleFunc("/holder/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/probe/{strategy}", s.handleProbe).Methods(http.MethodPost)
	return r
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("diagnostics server stopped", map[string]any{"error": err.Error()})
		}
	}()

	s.log.Info("diagnostics server listening", map[string]any{"addr": s.Addr()})
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.boundAddr != "" {
		return s.boundAddr
	}
	return s.addr
}

// Close shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Close(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleHolder(w http.ResponseWriter, r *http.Request) {
	reg := s.probe.Registry()
	owner := reg.Current()
	if owner == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	strategy, _ := reg.Strategy()
	writeJSON(w, http.StatusOK, Holder{
		OwnerID:   owner.ID(),
		Owner:     owner.Name(),
		Strategy:  strategy.String(),
		Destroyed: owner.Destroyed(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	codec, err := snapshot.Lookup(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc := &snapshot.Document{Graph: snapshot.FromGraph(s.probe.Registry().Snapshot())}
	if codec.Name() == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := codec.Encode(w, doc); err != nil {
		s.log.Error("encoding snapshot", map[string]any{"error": err.Error()})
	}
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	strategy, err := sentinel.ParseStrategy(mux.Vars(r)["strategy"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	clearOnDestroy := false
	if v := r.URL.Query().Get("clear"); v != "" {
		clearOnDestroy, err = strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "clear must be a boolean", http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, http.StatusOK, s.probe.SimulateCycle(strategy, clearOnDestroy))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
