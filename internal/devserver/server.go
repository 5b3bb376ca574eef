package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// ShutdownTimeout bounds how long Shutdown waits for open requests.
const ShutdownTimeout = 5 * time.Second

// Server is the dev HTTP server rooted at the intermediate directory.
type Server struct {
	root      string
	index     string
	startPath string
	port      int
	hub       *Hub
	registry  *prom.Registry

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry exposes reg at /metrics.
func WithRegistry(reg *prom.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// New builds a server for cfg.TmpPath. Live reload follows cfg.Dev.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		root:      cfg.TmpPath,
		index:     cfg.Dev.Index,
		startPath: strings.TrimPrefix(cfg.Dev.StartPath, "/"),
		port:      cfg.Dev.Port,
	}
	if s.index == "" {
		s.index = config.DefaultDevIndex
	}
	if cfg.Dev.LiveReloadEnabled() {
		s.hub = NewHub()
		s.hub.Broadcast(newVersion())
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routing for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	var files http.Handler = http.HandlerFunc(s.serveFile)
	if s.hub != nil {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(clientScript))
		})
		files = injectLiveReload(files)
	}
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.Handle("/", files)
	return mux
}

// serveFile resolves the request inside root; directories serve the index page.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	clean := path.Clean("/" + r.URL.Path)
	name := filepath.Join(s.root, filepath.FromSlash(clean))
	info, err := os.Stat(name)
	if err == nil && info.IsDir() {
		name = filepath.Join(name, s.index)
		info, err = os.Stat(name)
	}
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, name)
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start dev server").
			Fatal().
			WithContext("port", s.port).
			Build()
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	s.mu.Lock()
	s.srv, s.ln = srv, ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.ErrorContext(ctx, "Dev server stopped", logfields.Error(err))
		}
	}()
	observability.InfoContext(ctx, "Dev server started", logfields.URL(s.URL()), logfields.Path(s.root))
	return nil
}

// Addr is the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// URL is the page a developer should open first.
func (s *Server) URL() string {
	port := s.port
	if addr := s.Addr(); addr != "" {
		if _, p, err := net.SplitHostPort(addr); err == nil {
			port, _ = strconv.Atoi(p)
		}
	}
	return fmt.Sprintf("http://localhost:%d/%s", port, s.startPath)
}

// Reload tells connected browsers to refresh. It is a no-op when live reload is off.
func (s *Server) Reload() {
	if s.hub != nil {
		s.hub.Broadcast(newVersion())
	}
}

// Shutdown disconnects live-reload clients and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func newVersion() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
