package viz

import (
	"bytes"
	"fmt"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/sukyun02/2026-autonomous-driving/internal/httputil"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

// StatusSource is satisfied by *vehicle.Session.
type StatusSource interface {
	Status() (vehicle.Status, bool)
}

// Server renders the latest Status for the debug surface.
type Server struct {
	src  StatusSource
	zone obstacle.ScannerZone
}

func NewServer(src StatusSource, zone obstacle.ScannerZone) *Server {
	return &Server{src: src, zone: zone}
}

type statusResponse struct {
	vehicle.Status
	Summary Summary `json:"scan_summary"`
}

// AttachAdminRoutes mounts the navigation views under /debug/nav/.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("nav/status", "Latest control cycle (JSON)", http.HandlerFunc(s.handleStatus))
	debug.Handle("nav/scan.png", "Latest range scan (PNG)", http.HandlerFunc(s.handleScanPNG))
	debug.Handle("nav/scan.html", "Latest range scan (interactive)", http.HandlerFunc(s.handleScanHTML))
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) (vehicle.Status, bool) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return vehicle.Status{}, false
	}
	st, ok := s.src.Status()
	if !ok {
		httputil.Unavailable(w, "no control cycle has completed yet")
		return vehicle.Status{}, false
	}
	return st, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.latest(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, statusResponse{Status: st, Summary: Summarise(st.Points, s.zone)})
}

func (s *Server) handleScanPNG(w http.ResponseWriter, r *http.Request) {
	st, ok := s.latest(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteScanPNG(&buf, st, s.zone); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleScanHTML(w http.ResponseWriter, r *http.Request) {
	st, ok := s.latest(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteScanHTML(&buf, st, s.zone); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
