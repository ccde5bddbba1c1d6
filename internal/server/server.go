// Package server serves a built site for local development. It rebuilds when
// sources change and tells connected browsers to reload.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/spf13/afero"

	"github.com/htmlssg/htmlssg/internal/build"
	"github.com/htmlssg/htmlssg/internal/logging"
	"github.com/htmlssg/htmlssg/internal/version"
	"github.com/htmlssg/htmlssg/internal/watcher"
)

// HealthPath reports server health as JSON.
const HealthPath = "/__htmlssg/health"

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Host string
	Port int
	// Watch rebuilds the site when files under the source root change.
	Watch bool
	// LiveReload injects the reload script and serves the reload socket.
	LiveReload bool
	// Debounce groups rapid file changes into one rebuild.
	Debounce time.Duration
	// Open launches the default browser once listening.
	Open bool
}

// Server is the development server.
type Server struct {
	fs        afero.Fs
	generator *build.Generator
	opts      Options
	hub       *Hub
	files     *FileHandler
	logger    logging.Logger

	buildMutex sync.Mutex // serializes rebuilds
	stateMutex sync.RWMutex
	lastResult *build.Result
	lastErr    error

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	addr         string
	shutdownOnce sync.Once
}

// New creates a Server that builds with generator and serves its output
// directory from fs.
func New(fs afero.Fs, generator *build.Generator, opts Options, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("server")

	return &Server{
		fs:        fs,
		generator: generator,
		opts:      opts,
		hub:       NewHub(logger),
		files:     NewFileHandler(fs, generator.Options().OutputDir, opts.LiveReload),
		logger:    logger,
	}
}

// Handler returns the server's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(StatusPath, s.handleStatus)
	mux.HandleFunc(HealthPath, s.handleHealth)
	if s.opts.LiveReload {
		mux.Handle(LiveReloadPath, s.hub)
	}
	mux.Handle("/", s.files)

	return s.addMiddleware(mux)
}

func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Rebuild runs a full build, records it for the status page and, when it
// succeeds, asks browsers to reload. Concurrent calls run one at a time.
func (s *Server) Rebuild(ctx context.Context) (*build.Result, error) {
	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()

	result, err := s.generator.Build(ctx)

	s.stateMutex.Lock()
	s.lastResult, s.lastErr = result, err
	s.stateMutex.Unlock()

	if err != nil {
		s.logger.Error(ctx, err, "Build failed")
		return nil, err
	}
	if result.HasErrors() {
		s.logger.Warn(ctx, nil, "Build finished with errors; see "+StatusPath, "diagnostics", len(result.Diagnostics))
	}

	if s.opts.LiveReload {
		s.hub.Broadcast(UpdateMessage{Type: "reload", Timestamp: time.Now()})
	}
	return result, nil
}

// Status returns what the status page shows.
func (s *Server) Status() *Status {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	return &Status{
		Version: version.GetShortVersion(),
		Result:  s.lastResult,
		Err:     s.lastErr,
		Metrics: s.generator.Metrics().GetSnapshot(),
		Clients: s.hub.Clients(),
	}
}

// Start builds the site, then serves it until ctx is cancelled and shuts
// down gracefully. An initial build that cannot run at all is returned.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.Rebuild(ctx); err != nil {
		return err
	}

	if s.opts.LiveReload {
		go s.hub.Run(ctx)
	}

	if s.opts.Watch {
		fw, err := s.watch(ctx)
		if err != nil {
			s.logger.Warn(ctx, err, "File watching disabled")
		} else {
			defer fw.Stop()
		}
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.addr = listener.Addr().String()
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Serving site", "url", "http://"+s.addr, "output", s.generator.Options().OutputDir)
	if s.opts.Open {
		go s.openBrowser(ctx, "http://"+s.addr)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Addr returns the listening address once Start is serving.
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	return s.addr
}

// Shutdown stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) watch(ctx context.Context) (*watcher.FileWatcher, error) {
	opts := s.generator.Options()

	fw, err := watcher.NewFileWatcher(s.opts.Debounce, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw.AddFilter(watcher.SiteFilter)
	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(watcher.NoGitFilter)
	if err := fw.SkipDir(opts.OutputDir); err != nil {
		return nil, err
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		s.logger.Info(ctx, "Source changed; rebuilding", "files", len(events), "first", events[0].Path)
		_, err := s.Rebuild(ctx)
		return err
	})

	if err := fw.AddRecursive(opts.SourceDir); err != nil {
		fw.Stop()
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		return nil, err
	}
	return fw, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	templ.Handler(StatusPage(s.Status())).ServeHTTP(w, r)
}

// handleHealth returns the server health status for health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := s.Status()
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   status.Version,
		"clients":   status.Clients,
	}
	if status.Err != nil {
		health["status"] = "build_failed"
		health["error"] = status.Err.Error()
	} else if status.Result != nil {
		health["pages"] = len(status.Result.Pages)
		health["diagnostics"] = len(status.Result.Diagnostics)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}
