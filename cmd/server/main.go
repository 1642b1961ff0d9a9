// Package main starts the catalog service: web interface, JSON API and
// MCP endpoint on one HTTP listener.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/storage/sqlite"
	"github.com/mscwg/catalog/internal/catalog/users"
	"github.com/mscwg/catalog/internal/catalog/vocab"
	"github.com/mscwg/catalog/internal/platform/config"
	"github.com/mscwg/catalog/internal/platform/otel"
	"github.com/mscwg/catalog/internal/services/api"
	"github.com/mscwg/catalog/internal/services/mcp"
	"github.com/mscwg/catalog/internal/services/web"
)

type serverConfig struct {
	HTTPAddr    string        `env:"MSC_HTTP_ADDR" envDefault:":8080"`
	DBPath      string        `env:"MSC_DB_PATH" envDefault:"catalog.db"`
	BaseURL     string        `env:"MSC_BASE_URL"`
	TokenSecret string        `env:"MSC_TOKEN_SECRET,required"`
	SessionTTL  time.Duration `env:"MSC_SESSION_TTL" envDefault:"12h"`

	GoogleClientID     string `env:"MSC_OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"MSC_OAUTH_GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"MSC_OAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"MSC_OAUTH_GITHUB_CLIENT_SECRET"`
	ORCIDClientID      string `env:"MSC_OAUTH_ORCID_CLIENT_ID"`
	ORCIDClientSecret  string `env:"MSC_OAUTH_ORCID_CLIENT_SECRET"`
}

func main() {
	log.SetPrefix("[CATALOG] ")

	var cfg serverConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := otel.Setup(ctx, "catalog")
	if err != nil {
		config.Exitf("set up telemetry: %v", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			log.Printf("shut down telemetry: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store at %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	thesaurus, err := vocab.Load()
	if err != nil {
		config.Exitf("load thesaurus: %v", err)
	}
	cat := catalog.New(store, thesaurus)

	apiHandler, err := api.NewHandler(api.Config{
		Catalog: cat,
		Tokens:  users.NewTokenIssuer([]byte(cfg.TokenSecret)),
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		config.Exitf("compose API handler: %v", err)
	}

	mcpServer, err := mcp.New(mcp.Config{Catalog: cat})
	if err != nil {
		config.Exitf("compose MCP server: %v", err)
	}

	server, err := web.NewServer(ctx, web.Config{
		HTTPAddr:   cfg.HTTPAddr,
		Catalog:    cat,
		Providers:  providers(cfg),
		SessionTTL: cfg.SessionTTL,
		APIHandler: apiHandler,
		MCPHandler: mcpServer.Handler(),
	})
	if err != nil {
		config.Exitf("compose server: %v", err)
	}
	defer server.Close()

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(ctx); err != nil {
		config.Exitf("serve: %v", err)
	}
}

// providers enables the sign-in services the deployment holds client
// credentials for.
func providers(cfg serverConfig) []*users.Provider {
	credentials := map[string][2]string{
		"google": {cfg.GoogleClientID, cfg.GoogleClientSecret},
		"github": {cfg.GitHubClientID, cfg.GitHubClientSecret},
		"orcid":  {cfg.ORCIDClientID, cfg.ORCIDClientSecret},
	}
	var out []*users.Provider
	for _, pc := range users.KnownProviders {
		creds, ok := credentials[pc.Name]
		if !ok || creds[0] == "" || creds[1] == "" {
			continue
		}
		redirect := cfg.BaseURL + "/user/callback/" + pc.Name
		out = append(out, users.NewProvider(pc, creds[0], creds[1], redirect))
	}
	return out
}
