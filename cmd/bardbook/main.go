// Copyright 2025 The Bardbook Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the Blingus' Bardbook search core.

bardbook searches a catalog of bardic insults, spells and one-liners with
exact and typo-tolerant matching, highlights the hits and counts the results.
It can act as a MessagePack IPC backend for a renderer, as an interactive CLI,
or as the HTTP save/load endpoint that keeps user data in sync.

# Usage

Start the IPC server with the bundled catalog:

	bardbook

Use a custom catalog directory and enable debug mode:

	bardbook -data /path/to/catalog -d

Run the interactive CLI:

	bardbook -c -limit 10

Serve the save/load endpoint backed by SQLite:

	BLINGUS_API_KEY=secret bardbook -serve -backend sqlite -addr 127.0.0.1:8080

Roll back the SQLite schema, or export the catalog as JSON sections:

	bardbook -migrate-down
	bardbook -export /tmp/catalog

Push a local JSON document to a remote endpoint, or print the remote copy:

	bardbook -push data.json -remote https://bard.example/api/sync
	bardbook -pull -remote https://bard.example/api/sync

The catalog directory holds one JSON file per section. Each file is an array
of strings or {"t": title, "s": subtitle, "a": attribution} cards. Plain .txt
files with one entry per line are read too.

# Configuration

Runtime configuration lives in a TOML file, created with defaults when missing:

	[search]
	fuzzy_threshold = 2
	default_fuzzy = true

	[highlight]
	tag = "mark"

	[server]
	addr = "127.0.0.1:8080"
	backend = "file"
	data_dir = "data"

The fuzzy toggle is remembered between runs in prefs.msgpack next to the config.

# IPC Protocol

Requests and responses are MessagePack maps on stdin/stdout. See package
server for the message shapes:

	{"id": "req1", "q": "vicous", "f": true}
	{"id": "req1", "m": [{"i": 0, "s": "insults", "h": ["Vicious Mockery"]}], "c": 1, "a": true, "t": 145}

All logs go to stderr.
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/bardbook/internal/cli"
	"github.com/bastiangx/bardbook/internal/logger"
	"github.com/bastiangx/bardbook/internal/prefs"
	"github.com/bastiangx/bardbook/internal/storage"
	bardsync "github.com/bastiangx/bardbook/internal/sync"
	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/config"
	"github.com/bastiangx/bardbook/pkg/engine"
	"github.com/bastiangx/bardbook/pkg/highlight"
	"github.com/bastiangx/bardbook/pkg/server"
	"github.com/bastiangx/bardbook/pkg/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.4.0"
	AppName = "bardbook"
	gh      = "https://github.com/bastiangx/bardbook"
)

// sigHandler cancels the returned context on the first signal and exits on the second.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

func main() {
	logger.SetOutput(os.Stderr)
	ctx := sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to a custom config.toml")
	catalogDir := flag.String("data", "data/catalog", "Directory containing the catalog section files")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the interactive CLI")
	limit := flag.Int("limit", 0, "Number of results to print or return (default from config)")
	serveMode := flag.Bool("serve", false, "Serve the HTTP save/load endpoint")
	addr := flag.String("addr", "", "Listen address for -serve (default from config)")
	backend := flag.String("backend", "", "Storage backend for -serve: file or sqlite (default from config)")
	pushFile := flag.String("push", "", "Save a JSON document to the -remote endpoint")
	pull := flag.Bool("pull", false, "Print the data stored at the -remote endpoint")
	remote := flag.String("remote", "", "Save/load endpoint URL for -push and -pull")
	migrateDown := flag.Bool("migrate-down", false, "Roll back the latest SQLite schema migration in the server data dir")
	exportDir := flag.String("export", "", "Write the loaded catalog to this directory as JSON sections")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	cfg, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(configPath))
	if *limit <= 0 {
		*limit = cfg.CLI.DefaultLimit
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Print("Either env is not set or system is not supported")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	switch {
	case *pushFile != "" || *pull:
		if err := runSync(ctx, cfg, *remote, *pushFile); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	case *migrateDown:
		dataDir := pathResolver.ResolveRelativePath(cfg.Server.DataDir)
		from, to, err := rollbackSQLite(ctx, dataDir)
		if err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		fmt.Fprintf(os.Stderr, "rolled back schema %s -> %s in %s\n", from, to, dataDir)
		return
	case *serveMode:
		if *addr != "" {
			cfg.Server.Addr = *addr
		}
		if *backend != "" {
			cfg.Server.Backend = *backend
		}
		dataDir := pathResolver.ResolveRelativePath(cfg.Server.DataDir)
		if err := runServe(ctx, cfg, dataDir); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	resolvedCatalog := pathResolver.GetDataDir(*catalogDir)
	log.Debugf("Using catalog dir at: %s", resolvedCatalog)
	cat, err := catalog.Load(ctx, resolvedCatalog)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	if cat.Len() == 0 {
		log.Warnf("Catalog at %s is empty, every search will come back with nothing", resolvedCatalog)
	}

	if *exportDir != "" {
		n, err := exportCatalog(cat, *exportDir)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Fprintf(os.Stderr, "exported %d %s to %s\n", n, utils.Plural(n, "section"), *exportDir)
		return
	}

	prefsPath := pathResolver.GetConfigPath("prefs.msgpack")
	var store session.Store
	if fileStore, err := prefs.OpenFile(prefsPath); err != nil {
		log.Warnf("Preferences unavailable (%v), the fuzzy toggle will not be remembered", err)
		store = prefs.NewMemoryStore()
	} else {
		store = fileStore
	}

	sess := session.New(store, cfg.Search.DefaultFuzzy)
	eng, err := engine.New(sess, cat, engine.Options{
		Threshold:   cfg.Search.FuzzyThreshold,
		ArenaSize:   cfg.Observer.ArenaSize,
		Highlighter: highlight.New(cfg.Highlight.Tag, cfg.Highlight.Class, cfg.Highlight.Style),
	})
	if err != nil {
		log.Fatalf("Failed to init search engine: %v", err)
	}
	defer eng.Close()

	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", *limit, "fuzzy", sess.Current().Fuzzy, "entries", cat.Len())
		inputHandler := cli.NewInputHandler(eng, os.Stdin, os.Stdout, *limit, cfg.CLI.Color)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(eng, os.Stdin, os.Stdout, *limit)
	showStartupInfo(resolvedCatalog, cat)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// runServe serves the save/load endpoint until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, dataDir string) error {
	if err := utils.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	backend, err := storage.Open(ctx, cfg.Server.Backend, dataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Errorf("Closing storage: %v", err)
		}
	}()

	httpLog := logger.New("http")
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           syncMux(cfg, backend),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          httpLog.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}

	errCh := make(chan error, 1)
	go func() {
		httpLog.Infof("listening on %s (%s backend, data in %s)", cfg.Server.Addr, cfg.Server.Backend, dataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpLog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// runSync pushes pushFile to, or pulls from, the remote endpoint.
func runSync(ctx context.Context, cfg *config.Config, remote, pushFile string) error {
	if remote == "" {
		remote = "http://" + cfg.Server.Addr + "/api/sync"
	}
	client := bardsync.NewClient(remote, cfg.Server.APIKey)

	if pushFile != "" {
		raw, err := os.ReadFile(pushFile)
		if err != nil {
			return err
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parsing %s: %w", pushFile, err)
		}
		stamp, err := client.Save(ctx, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %d %s to %s at %s\n", len(data), utils.Plural(len(data), "key"), remote, stamp)
		return nil
	}

	data, stamp, err := client.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "nothing saved at %s yet\n", remote)
		return nil
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	log.Debugf("pulled %d keys saved at %s", len(data), stamp)
	return nil
}

func printVersion() {
	vlog := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	vlog.SetStyles(styles)

	vlog.Print("")
	vlog.Print("[ Bardbook ] Finds the right insult, even when you can't spell it")
	vlog.Print("", "version", Version)
	vlog.Print("")
	vlog.Print("use -h or --help to see available options")
	vlog.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(catalogDir string, cat *catalog.Catalog) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("catalog: ( %s ) %s entries", catalogDir, utils.FormatWithCommas(cat.Len()))
	if malformed := cat.Stats()["malformed"]; malformed > 0 {
		log.Warnf("%d malformed catalog entries will never match", malformed)
	}
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
