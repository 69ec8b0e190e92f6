// Package server orchestrates all components: COMMS client, permission
// store, portal backend, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/desktop-portal/internal/config"
	"github.com/morezero/desktop-portal/internal/reference"
	"github.com/morezero/desktop-portal/pkg/commsutil"
	"github.com/morezero/desktop-portal/pkg/manifest"
	"github.com/morezero/desktop-portal/pkg/permissions"
	"github.com/morezero/desktop-portal/pkg/portal"
)

const logPrefix = "server:server"

// Server is the desktop-portal orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	embedded   *commsserver.Server
	store      *permissions.Store
	backend    *portal.Backend
	httpServer *http.Server
}

// SetupLogging installs the default slog handler at the configured level.
func SetupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// Run starts the portal backend, blocks until a shutdown signal or a fatal
// transport error, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	SetupLogging(cfg.LogLevel)

	slog.Info(fmt.Sprintf("%s - Starting desktop-portal", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Load the portal manifest
	m, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Serving as %s", logPrefix, m.Name))

	// Step 2: Start or connect the bus
	commsURL := cfg.COMMSURL
	if cfg.COMMSEmbedded {
		embedded, err := commsutil.StartEmbedded("127.0.0.1", commsserver.RANDOM_PORT)
		if err != nil {
			return fmt.Errorf("%s - failed to start embedded bus: %w", logPrefix, err)
		}
		s.embedded = embedded
		commsURL = embedded.ClientURL()
		slog.Info(fmt.Sprintf("%s - Embedded bus listening at %s", logPrefix, commsURL))
	}

	// A closed connection past the reconnect window is fatal; the run loop
	// exits instead of serving a dead subscription.
	fatalCh := make(chan error, 1)
	nc, err := commsutil.Connect(commsURL, cfg.COMMSName, func(lastErr error) {
		select {
		case fatalCh <- fmt.Errorf("%s - bus connection closed: %w", logPrefix, lastErr):
		default:
		}
	})
	if err != nil {
		s.shutdown(ctx)
		return fmt.Errorf("%s - failed to connect to bus: %w", logPrefix, err)
	}
	s.nc = nc

	// Step 3: Open the permission store
	store, err := permissions.NewStore(ctx, cfg.PermissionDB)
	if err != nil {
		s.shutdown(ctx)
		return fmt.Errorf("%s - failed to open permission store: %w", logPrefix, err)
	}
	s.store = store

	// Step 4: Build the backend with the reference implementations the
	// manifest declares
	builder := portal.NewBuilder(m.Name).Permissions(store)
	if m.Implements(portal.InterfaceWallpaper) {
		builder.Wallpaper(reference.NewWallpaper())
	}
	if m.Implements(portal.InterfaceScreenshot) {
		builder.Screenshot(reference.NewScreenshot())
	}
	if m.Implements(portal.InterfaceAccount) {
		builder.Account(reference.NewAccount())
	}
	if m.Implements(portal.InterfaceScreencast) {
		builder.Screencast(reference.NewScreencast())
	}
	backend, err := builder.Build(nc)
	if err != nil {
		s.shutdown(ctx)
		return fmt.Errorf("%s - failed to build backend: %w", logPrefix, err)
	}
	s.backend = backend

	if err := manifest.CheckAgainst(m, backend.Interfaces()); err != nil {
		s.shutdown(ctx)
		return err
	}

	// Step 5: Serve calls
	if err := backend.Serve(ctx); err != nil {
		s.shutdown(ctx)
		return err
	}

	// Step 6: Start HTTP health server
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.healthMux()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Desktop-portal is ready", logPrefix))

	// Wait for shutdown signal or fatal transport error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))
	case runErr = <-fatalCh:
		slog.Error(fmt.Sprintf("%s - Fatal transport error, shutting down: %v", logPrefix, runErr))
	}

	s.shutdown(ctx)
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return runErr
}

// healthStatus is the payload of the /health endpoint.
type healthStatus struct {
	Status     string   `json:"status"`
	Name       string   `json:"name"`
	Interfaces []string `json:"interfaces"`
	Connected  bool     `json:"connected"`
}

func (s *Server) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthStatus{
			Status:     "healthy",
			Name:       s.backend.Name(),
			Interfaces: s.backend.Interfaces(),
			Connected:  s.busHealthy(),
		}
		w.Header().Set("Content-Type", "application/json")
		if !h.Connected {
			h.Status = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	return mux
}

// busHealthy verifies the bus connection with a bounded round trip, not
// just the client's local connection flag.
func (s *Server) busHealthy() bool {
	if s.nc == nil || !s.nc.IsConnected() {
		return false
	}
	return s.nc.FlushTimeout(s.cfg.HealthCheckTimeout) == nil
}

// shutdown tears components down in dependency order; every field is
// optional so it can run after partial startup.
func (s *Server) shutdown(ctx context.Context) {
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			slog.Warn(fmt.Sprintf("%s - backend close: %v", logPrefix, err))
		}
	}
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		s.httpServer.Shutdown(shutdownCtx)
		cancel()
	}
	if s.nc != nil {
		s.nc.Drain()
	}
	if s.store != nil {
		s.store.Close()
	}
	if s.embedded != nil {
		s.embedded.Shutdown()
	}
}
