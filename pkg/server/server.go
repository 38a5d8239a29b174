// Package server serves a directory of constellation documents and
// archives over HTTP, standing in for a remote package host during
// development.
//
// Routes:
//
//	GET /healthz          liveness probe
//	GET /constellations   the constellation documents found in the directory
//	GET /*                static files
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

// Server serves one repository directory.
type Server struct {
	dir    string
	logger *log.Logger
	router chi.Router
}

// New creates a Server for dir, which must be an existing directory.
func New(dir string, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "serve directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}

	s := &Server{dir: abs, logger: logger}
	s.router = s.routes()
	return s, nil
}

// Dir returns the absolute directory being served.
func (s *Server) Dir() string { return s.dir }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/constellations", s.listConstellations)
	r.Handle("/*", http.FileServer(http.Dir(s.dir)))
	return r
}

// ConstellationInfo describes one document found by /constellations.
type ConstellationInfo struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Packages int    `json:"packages"`
}

func (s *Server) listConstellations(w http.ResponseWriter, r *http.Request) {
	infos, err := s.Constellations()
	if err != nil {
		s.logger.Error("list constellations", "error", err)
		http.Error(w, "failed to list constellations", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(infos)
}

// Constellations scans the top level of the directory for JSON files that
// decode as constellation metadata. Other JSON files are skipped.
func (s *Server) Constellations() ([]ConstellationInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	infos := []ConstellationInfo{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var meta catalog.Metadata
		if err := json.Unmarshal(data, &meta); err != nil || meta.Packages == nil {
			s.logger.Debug("skipping non-constellation file", "file", e.Name())
			continue
		}
		infos = append(infos, ConstellationInfo{Name: meta.Name, File: e.Name(), Packages: len(meta.Packages)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].File < infos[j].File })
	return infos, nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "dir", s.dir, "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
