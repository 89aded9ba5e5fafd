// Package httpapi exposes the signaling HTTP surface (§6): a demo viewer
// page and a JSON SDP offer/answer endpoint, following the same pkg/api
// server shape (ServeMux, CORS/logging middleware, embedded static assets)
// adapted from a multi-camera viewer to a single-offer renderer.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/ethan/cloudrender-relay/internal/config"
	"github.com/ethan/cloudrender-relay/internal/framesource"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

//go:embed web/index.html
var webFS embed.FS

// offerRequest is the JSON body of POST /session.
type offerRequest struct {
	SDP string `json:"sdp"`
}

// answerResponse is the JSON body returned from POST /session.
type answerResponse struct {
	SDP string `json:"sdp"`
}

// Server is the signaling HTTP server.
type Server struct {
	cfg  config.Config
	src  framesource.Source
	log  *logger.Logger
	http *http.Server
}

// NewServer constructs a Server that renders offered sessions via src.
func NewServer(cfg config.Config, src framesource.Source, log *logger.Logger) *Server {
	return &Server{cfg: cfg, src: src, log: log}
}

// Start begins serving on cfg.ListenAddr. It returns the listen error if one
// is reported within a 100 ms grace period, and nil otherwise.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/session", s.handleSession)

	s.http = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.withLogging(s.withCORS(mux)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Info("starting signaling server", "address", s.cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.log.Info("stopping signaling server")
	return s.http.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		s.log.Error("failed to read index.html", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleSession implements §6's single signaling operation: exchange one SDP
// offer for one SDP answer, starting a session for the lifetime of the
// negotiated PeerConnection.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req offerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SDP == "" {
		http.Error(w, "missing sdp", http.StatusBadRequest)
		return
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: req.SDP}
	if _, err := offer.Unmarshal(); err != nil {
		http.Error(w, "malformed sdp offer", http.StatusBadRequest)
		return
	}

	answer, cleanup, err := startSession(context.Background(), s.cfg, s.src, req.SDP, s.log)
	if err != nil {
		s.log.Error("failed to start session", "error", err)
		http.Error(w, fmt.Sprintf("failed to start session: %v", err), http.StatusInternalServerError)
		return
	}
	_ = cleanup // startSession already arranges for this to run when its driver goroutine exits

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answerResponse{SDP: answer})
}

// withCORS allows the demo page to be served from any origin during local
// development, the same permissive viewer CORS policy used elsewhere in
// this pack.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
