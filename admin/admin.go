// Package admin exposes a read-only HTTP status surface over a running
// bridge: which devices are registered, what operations each one reports,
// and the aggregate topic list an operator would expect a transport binding
// to be subscribed to. Nothing here can mutate bridge state; admin is an
// observer, never a control plane.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// BridgeView is the read-only projection admin needs out of bridge.Bridge.
type BridgeView interface {
	Devices() []string
	Topics() []string
}

// AdapterView is the read-only projection admin needs for one device's
// detail page.
type AdapterView interface {
	Topics() []string
}

// Server wraps a chi.Router serving the admin surface.
type Server struct {
	bridge BridgeView
	router chi.Router
}

// New builds the admin router over bridge. deviceTopics looks up a single
// device's adapter (by deviceId) and returns its topics, or ok=false if the
// device isn't registered. Kept as a narrow callback rather than a larger
// interface so admin doesn't need to know about dab.BaseAdapter directly.
func New(bridge BridgeView, deviceTopics func(deviceID string) (AdapterView, bool)) *Server {
	s := &Server{bridge: bridge}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/devices", s.handleDevices)
	r.Get("/devices/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		adapter, ok := deviceTopics(id)
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, map[string]any{
			"deviceId":   id,
			"operations": adapter.Topics(),
		})
	})
	r.Get("/topics", s.handleTopics)

	s.router = r
	return s
}

// ServeHTTP lets *Server be passed directly to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"devices": s.bridge.Devices()})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"topics": s.bridge.Topics()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
