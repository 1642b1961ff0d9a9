// Package web hosts the browser-facing catalog service.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/users"
	"github.com/mscwg/catalog/internal/services/web/app"
	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/modules"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
	"github.com/mscwg/catalog/internal/services/web/platform/session"
	"github.com/mscwg/catalog/internal/services/web/platform/sessioncookie"
	webstatic "github.com/mscwg/catalog/internal/services/web/static"
)

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr   string
	Catalog    *catalog.Catalog
	Providers  []*users.Provider
	SessionTTL time.Duration
	// APIHandler, when set, serves the JSON interface under /api2/.
	APIHandler http.Handler
	// MCPHandler, when set, serves the machine-agent endpoint at /mcp.
	MCPHandler http.Handler
}

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler from the default module registry.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	sessions := session.NewManager(cfg.SessionTTL)
	deps := module.Dependencies{
		Catalog:   cfg.Catalog,
		Providers: cfg.Providers,
		ResolveUser: func(r *http.Request) (users.User, bool) {
			id, ok := sessioncookie.Read(r)
			if !ok {
				return users.User{}, false
			}
			return sessions.Lookup(id)
		},
		SignIn: func(w http.ResponseWriter, r *http.Request, user users.User) {
			sessioncookie.Write(w, r, sessions.Create(user))
		},
		SignOut: func(w http.ResponseWriter, r *http.Request) {
			if id, ok := sessioncookie.Read(r); ok {
				sessions.Destroy(id)
			}
			sessioncookie.Clear(w, r)
		},
		BeginLogin:    sessions.BeginLogin,
		CompleteLogin: sessions.CompleteLogin,
	}

	handler, err := app.Compose(app.ComposeInput{
		Dependencies:     deps,
		PublicModules:    modules.PublicModules(),
		ProtectedModules: modules.ProtectedModules(),
	})
	if err != nil {
		return nil, err
	}

	rootMux := http.NewServeMux()
	rootMux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(webstatic.FS))))
	if cfg.APIHandler != nil {
		rootMux.Handle("/api2/", cfg.APIHandler)
	}
	if cfg.MCPHandler != nil {
		rootMux.Handle("/mcp", cfg.MCPHandler)
	}
	rootMux.Handle("/", handler)
	return httpx.Chain(rootMux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.Trace("web"),
		httpx.RequestLogger(log.Default()),
	), nil
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe serves HTTP until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("server is not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}
