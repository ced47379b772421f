package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bastiangx/bardbook/internal/api"
	"github.com/bastiangx/bardbook/internal/storage"
	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/config"
	"github.com/charmbracelet/log"
)

// syncMux routes the save/load endpoint. An empty API key leaves it open.
func syncMux(cfg *config.Config, backend storage.Backend) *http.ServeMux {
	if cfg.Server.APIKey == "" {
		log.Warnf("No API key configured, the endpoint accepts unauthenticated requests (set server.api_key or %s)", config.EnvAPIKey)
	}
	mux := http.NewServeMux()
	mux.Handle("/api/sync", api.NewHandler(backend, api.Options{
		APIKey:         cfg.Server.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   int64(cfg.Server.MaxBodyBytes),
	}))
	return mux
}

// rollbackSQLite undoes the latest schema migration of the database in dir
// and reports the versions before and after.
func rollbackSQLite(ctx context.Context, dir string) (from, to string, err error) {
	store, err := storage.OpenSQLiteDir(ctx, dir)
	if err != nil {
		return "", "", err
	}
	defer store.Close()

	before, err := storage.SchemaVersion(ctx, store.DB())
	if err != nil {
		return "", "", err
	}
	if err := storage.RollbackMigration(ctx, store.DB()); err != nil {
		return "", "", err
	}
	after, err := storage.SchemaVersion(ctx, store.DB())
	if err != nil {
		return "", "", err
	}
	return before.String(), after.String(), nil
}

// exportCatalog writes every section of cat to dir as <name>.json, the
// format Load reads back.
func exportCatalog(cat *catalog.Catalog, dir string) (int, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return 0, fmt.Errorf("creating export dir: %w", err)
	}
	for _, s := range cat.Sections {
		path := filepath.Join(dir, s.Name+".json")
		f, err := os.Create(path)
		if err != nil {
			return 0, err
		}
		if err := catalog.Encode(f, s.Entries); err != nil {
			f.Close()
			return 0, fmt.Errorf("encoding %s: %w", s.Name, err)
		}
		if err := f.Close(); err != nil {
			return 0, err
		}
		log.Debugf("Exported %d entries to %s", len(s.Entries), path)
	}
	return len(cat.Sections), nil
}
