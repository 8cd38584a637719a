package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/yapits/internal/config"
	"github.com/yourorg/yapits/internal/generator"
	"github.com/yourorg/yapits/internal/yapi"
	"github.com/yourorg/yapits/pkg/types"
)

const requestIDHeader = "X-Request-ID"

// Server exposes the synthesizer to the browser extension.
type Server struct {
	cfg      *config.Config
	pipeline *generator.Pipeline
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New constructs a new Server with routes registered.
func New(cfg *config.Config, p *generator.Pipeline, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if p == nil {
		return nil, errors.New("pipeline is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		cfg:      cfg,
		pipeline: p,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- hs.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/synthesize", s.handleSynthesize)
	s.mux.HandleFunc("/api/category", s.handleCategory)
	s.mux.HandleFunc("/api/artifacts", s.handleArtifacts)
	s.mux.HandleFunc("/api/artifacts/", s.handleArtifactRoutes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		InterfaceID int                `json:"interface_id"`
		Refresh     bool               `json:"refresh"`
		Document    *types.ApiDocument `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	var (
		art *types.GeneratedArtifact
		err error
	)
	switch {
	case req.Document != nil:
		art, err = s.pipeline.Document(r.Context(), *req.Document, true)
	case req.InterfaceID > 0:
		art, err = s.pipeline.Interface(r.Context(), req.InterfaceID, req.Refresh)
	default:
		http.Error(w, "interface_id or document required", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, art)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CatID   int  `json:"cat_id"`
		Refresh bool `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.CatID <= 0 {
		http.Error(w, "cat_id required", http.StatusBadRequest)
		return
	}
	res, err := s.pipeline.Category(r.Context(), req.CatID, req.Refresh)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		arts, err := s.pipeline.Artifacts(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, arts)
	case http.MethodDelete:
		if err := s.pipeline.Forget(r.Context(), 0); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleArtifactRoutes(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	rawID, tail, ok := splitPath(r.URL.Path, "/api/artifacts/")
	id, err := strconv.Atoi(rawID)
	if !ok || err != nil || id <= 0 || (tail != "" && tail != "text") {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodDelete && tail == "" {
		if err := s.pipeline.Forget(r.Context(), id); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	art, err := s.pipeline.Artifact(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if art == nil {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}
	if tail == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(art.Text()))
		return
	}
	writeJSON(w, http.StatusOK, art)
}

// fail maps an error to a status code. Upstream YApi failures are 502.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var apiErr *yapi.APIError
	var synthErr *generator.SynthesisError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &apiErr), errors.Is(err, generator.ErrProjectLookup):
		status = http.StatusBadGateway
	case errors.As(err, &synthErr):
		status = http.StatusUnprocessableEntity
	}
	s.logger.Error("request failed",
		zap.String("request_id", w.Header().Get(requestIDHeader)),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func splitPath(fullPath, prefix string) (string, string, bool) {
	if !strings.HasPrefix(fullPath, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(fullPath, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	tail := ""
	if len(parts) > 1 {
		tail = strings.Join(parts[1:], "/")
	}
	return id, tail, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setCORS(w http.ResponseWriter, extensionID string) {
	origin := "*"
	if extensionID != "" {
		origin = "chrome-extension://" + extensionID
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
	w.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
}
