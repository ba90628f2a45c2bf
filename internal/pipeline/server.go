package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fayvince/resmeter/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Controller is the session surface driven by the control API.
type Controller interface {
	Start() bool
	Stop() bool
	SetParameterFields(n, b *int) bool
	SetDemoMode(enabled bool)
	Status() session.Status
}

type paramsRequest struct {
	N *int `json:"n"`
	B *int `json:"b"`
}

type demoRequest struct {
	Enabled *bool `json:"enabled"`
}

type apiResponse struct {
	Changed *bool          `json:"changed,omitempty"`
	Error   string         `json:"error,omitempty"`
	Status  session.Status `json:"status"`
}

// Server exposes the control API, the websocket status feed and metrics.
type Server struct {
	ctrl       Controller
	hub        *StatusHub
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer wires the routes. Listening starts in Run.
func NewServer(addr string, ctrl Controller, hub *StatusHub, logger *zap.Logger) *Server {
	s := &Server{ctrl: ctrl, hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /session/start", s.instrument("start", s.handleStart))
	mux.HandleFunc("POST /session/stop", s.instrument("stop", s.handleStop))
	mux.HandleFunc("PUT /session/params", s.instrument("params", s.handleParams))
	mux.HandleFunc("PUT /session/demo", s.instrument("demo", s.handleDemo))
	mux.HandleFunc("GET /status", s.instrument("status", s.handleStatus))
	mux.Handle("GET /ws", hub)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerFailed, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.hub.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
		}
		<-errCh
		s.logger.Info("HTTP server stopped")
		return context.Canceled
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrServerFailed, err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		apiRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		s.logger.Debug("API request",
			zap.String("route", route),
			zap.String("method", r.Method),
			zap.Int("code", rec.code),
		)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if !s.ctrl.Start() {
		s.writeJSON(w, http.StatusConflict, apiResponse{Error: "session already active", Status: s.ctrl.Status()})
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Status: s.ctrl.Status()})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if !s.ctrl.Stop() {
		s.writeJSON(w, http.StatusConflict, apiResponse{Error: "no active session", Status: s.ctrl.Status()})
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Status: s.ctrl.Status()})
}

// handleParams accepts {"n": N, "b": B}; an omitted field keeps its current
// value. Out-of-range values are clamped.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var req paramsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Error: err.Error(), Status: s.ctrl.Status()})
		return
	}
	if req.N == nil && req.B == nil {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Error: `one of "n" or "b" is required`, Status: s.ctrl.Status()})
		return
	}

	changed := s.ctrl.SetParameterFields(req.N, req.B)
	s.writeJSON(w, http.StatusOK, apiResponse{Changed: &changed, Status: s.ctrl.Status()})
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	var req demoRequest
	if err := decodeBody(w, r, &req); err != nil || req.Enabled == nil {
		msg := `"enabled" is required`
		if err != nil {
			msg = err.Error()
		}
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Error: msg, Status: s.ctrl.Status()})
		return
	}
	s.ctrl.SetDemoMode(*req.Enabled)
	s.writeJSON(w, http.StatusOK, apiResponse{Status: s.ctrl.Status()})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", zap.Error(err))
	}
}
