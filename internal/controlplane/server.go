package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/veritas/internal/models"
	"github.com/fentz26/veritas/internal/provenance"
	"github.com/fentz26/veritas/internal/simulator"
)

// Version is reported by the health endpoint.
var Version = "dev"

// maxBodyBytes bounds request bodies; shift logs may carry inline photos.
const maxBodyBytes = 64 << 20

// Server provides the HTTP API for Veritas.
type Server struct {
	service *Service
	addr    string
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, addr string) *Server {
	return &Server{
		service: service,
		addr:    addr,
	}
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/simulate", s.handleSimulate)
	mux.HandleFunc("/provenance", s.handleProvenance)
	mux.Handle("/output/", s.outputHandler())
	mux.HandleFunc("/health", s.handleHealth)

	return withCORS(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	log.Printf("Starting Veritas API on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		OK:      true,
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Simulation ---

// SimulateRequest is the body of POST /simulate.
type SimulateRequest struct {
	Segments []models.Segment `json:"segments"`
	Days     *int             `json:"days,omitempty"`
	Seed     *int64           `json:"seed,omitempty"`
}

// SimulateResponse is the result of POST /simulate.
type SimulateResponse struct {
	Logs    []models.ShiftLog         `json:"logs"`
	Summary *models.SimulationSummary `json:"summary"`
}

// handleSimulate handles POST /simulate
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SimulateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	logs, summary, err := s.service.Simulate(req.Segments, req.Days, req.Seed)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SimulateResponse{Logs: logs, Summary: summary})
}

// --- Provenance ---

// ProvenanceRequest is the body of POST /provenance.
type ProvenanceRequest struct {
	ShiftLogs  []models.ShiftLog       `json:"shift_logs"`
	OutputName string                  `json:"output_name,omitempty"`
	Project    *models.ProjectMetadata `json:"project,omitempty"`
}

// ProvenanceResponse is the result of POST /provenance.
type ProvenanceResponse struct {
	PDFPath string `json:"pdf_path"`
	SHA256  string `json:"sha256"`
}

// handleProvenance handles POST /provenance
func (s *Server) handleProvenance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ProvenanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	artifact, err := s.service.GenerateProvenance(req.ShiftLogs, req.OutputName, req.Project)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProvenanceResponse{
		PDFPath: outputURL(r, filepath.Base(artifact.Path)),
		SHA256:  artifact.SHA256,
	})
}

// outputHandler serves generated documents under /output/<name>.
func (s *Server) outputHandler() http.Handler {
	files := http.StripPrefix("/output/", http.FileServer(http.Dir(s.service.OutputDir())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/output/")
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func outputURL(r *http.Request, name string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/output/" + url.PathEscape(name)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoSegments),
		errors.Is(err, ErrNoShiftLogs),
		errors.Is(err, ErrInvalidOutputName),
		errors.Is(err, simulator.ErrInvalidInput),
		errors.Is(err, provenance.ErrNoShiftLogs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if status >= http.StatusInternalServerError {
		log.Printf("Request failed: %s", msg)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// withCORS allows browser clients from any origin, as the field app needs.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
