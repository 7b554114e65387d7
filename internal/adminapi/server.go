// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package adminapi implements the read-only/test HTTP and WebSocket control
// surface (spec.md §3.6, §9): never on the critical path of any
// setupDataCall/deactivateDataCall/requestDataCallList/
// requestNetworkRegistrationInfo operation, used only for observability and
// local test orchestration.
package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/datasurface"
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/eventbus"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/tunnelmgr"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SlotServices bundles the per-slot collaborators a Server needs in order
// to answer admin-API requests for that slot. Every field but Manager is
// optional: a Server can be run with only the Tunnel Manager wired, e.g.
// for a minimal read-only deployment.
type SlotServices struct {
	Slot     int
	Manager  *tunnelmgr.Manager
	Policy   *errorpolicy.Engine
	Selector *epdgselector.Selector
	Surface  *datasurface.Surface
	Bus      *eventbus.Bus
}

// ServerConfig holds HTTP server security configuration, mirroring the
// Slowloris/body-size defenses of a typical embedded admin listener.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// DefaultServerConfig returns conservative defaults for a local-only admin
// listener.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}

// Server is the admin HTTP/WS surface. It holds no tunnel state of its
// own: every handler reads through to the wired per-slot services.
type Server struct {
	logger *logging.Logger
	slots  map[int]*SlotServices

	router     *mux.Router
	httpServer *http.Server

	upgrader  websocket.Upgrader
	wsClients map[*websocket.Conn]bool
	wsMu      sync.RWMutex
}

// NewServer builds a Server over the given per-slot services. It
// subscribes to each slot's Manager for dataCallListChanged so that
// GET /events can broadcast it over WebSocket.
func NewServer(slots []*SlotServices, logger *logging.Logger) *Server {
	s := &Server{
		logger:    logger,
		slots:     make(map[int]*SlotServices, len(slots)),
		router:    mux.NewRouter(),
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		wsClients: make(map[*websocket.Conn]bool),
	}
	for _, sv := range slots {
		s.slots[sv.Slot] = sv
		if sv.Manager != nil {
			sv.Manager.SetOnDataCallListChanged(func(list []*tunnelmgr.DataCallResponse) {
				s.broadcast("dataCallListChanged", map[string]any{"slot": sv.Slot, "calls": list})
			})
		}
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/tunnels", s.handleTunnels).Methods(http.MethodGet)
	s.router.HandleFunc("/policy/{apn}", s.handlePolicy).Methods(http.MethodGet)
	s.router.HandleFunc("/carrierconfig", s.handleSetCarrierConfig).Methods(http.MethodPost)
	s.router.HandleFunc("/simulate/setup", s.handleSimulateSetup).Methods(http.MethodPost)
	s.router.HandleFunc("/simulate/deactivate", s.handleSimulateDeactivate).Methods(http.MethodPost)
	s.router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/events/publish", s.handlePublishEvent).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// ListenAndServe starts the HTTP server on addr, blocking until it exits.
func (s *Server) ListenAndServe(addr string, cfg *ServerConfig) error {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	s.logger.Info("adminapi: listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
