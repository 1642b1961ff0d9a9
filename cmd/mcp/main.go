// Package main starts the catalog MCP server on stdio, for local agent
// clients that launch the server themselves.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/storage/sqlite"
	"github.com/mscwg/catalog/internal/catalog/vocab"
	"github.com/mscwg/catalog/internal/platform/config"
	"github.com/mscwg/catalog/internal/services/mcp"
)

type mcpConfig struct {
	DBPath string `env:"MSC_DB_PATH" envDefault:"catalog.db"`
}

func main() {
	log.SetPrefix("[MCP] ")

	var cfg mcpConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store at %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	thesaurus, err := vocab.Load()
	if err != nil {
		config.Exitf("load thesaurus: %v", err)
	}

	server, err := mcp.New(mcp.Config{Catalog: catalog.New(store, thesaurus)})
	if err != nil {
		config.Exitf("compose MCP server: %v", err)
	}
	if err := server.ServeStdio(ctx); err != nil {
		config.Exitf("serve MCP: %v", err)
	}
}
