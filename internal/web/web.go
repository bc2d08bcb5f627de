package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitalis/internal/catalog"
	"vitalis/internal/config"
	appLog "vitalis/internal/log"
	"vitalis/internal/model"
	"vitalis/internal/schedule"
	"vitalis/internal/store"
)

// clientCookie identifies a browser so its selections fallback gets its
// own namespace in the shared store.
const clientCookie = "vitalis_client"

// Server provides the planner's HTTP API and the embedded page.
type Server struct {
	cfg      *config.Config
	catalogs *catalog.Holder
	kv       store.KV
	mux      *http.ServeMux

	// Facet options only change with the catalog, so they are computed
	// once per installed catalog.
	facetsMu    sync.RWMutex
	facetsCache *facetsCache
}

type facetsCache struct {
	catalog *model.Catalog
	options model.FacetOptions
}

// embeddedStatic holds the single-page UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a Server over the shared catalog holder and store.
func NewServer(cfg *config.Config, catalogs *catalog.Holder, kv store.KV) *Server {
	s := &Server{
		cfg:      cfg,
		catalogs: catalogs,
		kv:       kv,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. An empty
// username or password disables it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Vitalis", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/seminars", s.handleSeminars)
	s.mux.HandleFunc("/api/days", s.handleDays)
	s.mux.HandleFunc("/api/facets", s.handleFacets)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/slots", s.handleSlots)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/agenda", s.handleAgenda)
	s.mux.HandleFunc("/api/conflict", s.handleConflict)
	s.mux.HandleFunc("/api/toggle", s.handleToggle)
	s.mux.HandleFunc("/api/filters/toggle", s.handleFilterToggle)
	s.mux.HandleFunc("/api/selections", s.handleSelections)
	s.mux.HandleFunc("/api/schedule.ics", s.handleScheduleICS)

	// Everything else is the embedded page.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded files from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		// Unknown API paths are 404s, never HTML.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// clientStore returns the store namespace of the calling browser, issuing
// a client id cookie on first contact.
func (s *Server) clientStore(w http.ResponseWriter, r *http.Request) store.KV {
	if s.kv == nil {
		return nil
	}
	if c, err := r.Cookie(clientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return store.Scoped(s.kv, id.String())
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store.Scoped(s.kv, id)
}

// facetOptions returns the cached options for cat, rebuilding them after
// a catalog swap.
func (s *Server) facetOptions(cat *model.Catalog) model.FacetOptions {
	s.facetsMu.RLock()
	fc := s.facetsCache
	s.facetsMu.RUnlock()
	if fc != nil && fc.catalog == cat {
		return fc.options
	}

	opts := schedule.BuildFacetOptions(cat.Seminars())
	s.facetsMu.Lock()
	s.facetsCache = &facetsCache{catalog: cat, options: opts}
	s.facetsMu.Unlock()
	return opts
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
