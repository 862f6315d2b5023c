package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/lwmacct/251124-bindconf/internal/config"
	"golang.org/x/sync/errgroup"
)

// Server represents the HTTP server bound to every configured URL
type Server struct {
	config   Config
	settings *config.Snapshot
	logger   *slog.Logger

	mu      sync.Mutex
	servers []*http.Server
	addrs   []net.Addr
}

// NewServer creates a new server instance. settings is served by /config.
func NewServer(cfg Config, settings *config.Snapshot, logger *slog.Logger) (*Server, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("no listen urls configured")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{config: cfg, settings: settings, logger: logger}, nil
}

// Run listens on every URL and serves until ctx is done or a listener
// fails; either way all listeners are shut down before it returns.
func (s *Server) Run(ctx context.Context) error {
	listeners, err := s.listen()
	if err != nil {
		return err
	}

	if err := s.writePortInfo(); err != nil {
		s.logger.Warn("failed to write port file", "path", s.config.PortFile, "error", err)
	}

	handler := s.Handler()
	g, gctx := errgroup.WithContext(ctx)

	s.mu.Lock()
	for _, ln := range listeners {
		srv := &http.Server{
			Handler:      handler,
			ReadTimeout:  s.config.ReadTimeout,
			WriteTimeout: s.config.WriteTimeout,
			IdleTimeout:  s.config.IdleTimeout,
		}
		s.servers = append(s.servers, srv)

		g.Go(func() error {
			s.logger.Info("server listening", "addr", ln.Addr().String())
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", ln.Addr(), err)
			}
			return nil
		})
	}
	s.mu.Unlock()

	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown()
		return nil
	})

	return g.Wait()
}

// Handler returns the routed handler, wrapped with the access log unless
// disabled.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/config", s.handleConfig)

	if s.config.NoAccessLog {
		return mux
	}
	return s.accessLogMiddleware(mux)
}

// Addrs returns the bound listener addresses once Run has started.
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]net.Addr(nil), s.addrs...)
}

// Shutdown gracefully shuts down every listener and removes the port file
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	servers := s.servers
	s.servers = nil
	s.mu.Unlock()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}

	if s.config.PortFile != "" {
		_ = os.Remove(s.config.PortFile)
	}

	s.logger.Info("server shutdown complete")
}

func (s *Server) listen() ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(s.config.URLs))
	for _, raw := range s.config.URLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			closeAll(listeners)
			return nil, fmt.Errorf("invalid listen url %q", raw)
		}
		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			closeAll(listeners)
			return nil, fmt.Errorf("listen on %s: %w", u.Host, err)
		}
		listeners = append(listeners, ln)
	}

	s.mu.Lock()
	for _, ln := range listeners {
		s.addrs = append(s.addrs, ln.Addr())
	}
	s.mu.Unlock()
	return listeners, nil
}

func (s *Server) writePortInfo() error {
	if s.config.PortFile == "" {
		return nil
	}

	addrs := s.Addrs()
	if len(addrs) == 0 {
		return nil
	}
	tcp, ok := addrs[0].(*net.TCPAddr)
	if !ok {
		return nil
	}
	return os.WriteFile(s.config.PortFile, fmt.Appendf(nil, "%d\n", tcp.Port), 0o644)
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func closeAll(listeners []net.Listener) {
	for _, ln := range listeners {
		_ = ln.Close()
	}
}
