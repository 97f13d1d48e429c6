package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/embedmcp/embed-mcp/internal/config"
	"github.com/embedmcp/embed-mcp/internal/httpserver"
	"github.com/embedmcp/embed-mcp/internal/logger"
	"github.com/embedmcp/embed-mcp/internal/mcp"
	"github.com/embedmcp/embed-mcp/internal/querylog"
	"github.com/embedmcp/embed-mcp/internal/tools"
	"github.com/embedmcp/embed-mcp/internal/users"
	"github.com/embedmcp/embed-mcp/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	stdio := flag.Bool("stdio", false, "serve JSON-RPC over stdin/stdout instead of HTTP")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	log := logger.ForComponent("main")

	if err := cfg.EnsureDirectories(); err != nil {
		log.Error("failed to ensure directories", "error", err)
		os.Exit(1)
	}

	userStore, err := users.NewStore(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open user store", "error", err)
		os.Exit(1)
	}
	defer userStore.Close()

	if err := userStore.SeedDefaultAdmin(); err != nil {
		log.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	registry := tools.NewRegistry()
	registry.SetStrict(cfg.StrictArguments)
	if err := registerTools(registry); err != nil {
		log.Error("failed to register tools", "error", err)
		os.Exit(1)
	}

	server := mcp.NewServer(registry)

	var queryStore *querylog.Store
	if cfg.QueryLog.Enabled {
		queryStore, err = querylog.NewStore(cfg.DatabasePath, cfg.QueryLog.ExcludePatterns)
		if err != nil {
			log.Error("failed to open query log", "error", err)
			os.Exit(1)
		}
		defer queryStore.Close()
		server.Handler().SetRecorder(queryStore)
	}

	log.Info("server initialized",
		"tools", registry.Names(),
		"query_log", cfg.QueryLog.Enabled,
		"db", cfg.DatabasePath)

	if *stdio {
		if err := server.ProcessStream(os.Stdin, os.Stdout); err != nil {
			log.Error("stdio stream failed", "error", err)
			os.Exit(1)
		}
		return
	}

	keys := newKeyHolder(cfg.APIKey)
	httpSrv := httpserver.New(cfg.Addr(), server.Handler(), keys.get)

	if cfg.Path != "" {
		w, err := watcher.New(cfg.Path, func(fresh *config.Config) {
			logger.SetLevel(fresh.LogLevel)
			keys.set(fresh.APIKey)
		})
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		} else if err := w.Start(); err != nil {
			log.Warn("config watcher failed to start", "error", err)
		} else {
			defer w.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}
}

func registerTools(registry *tools.Registry) error {
	if err := registry.Register(tools.NewEchoTool()); err != nil {
		return err
	}
	return registry.Register(tools.NewHealthTool())
}

// keyHolder lets the HTTP auth middleware observe API key rotations from
// config reloads.
type keyHolder struct {
	mu  sync.RWMutex
	key string
}

func newKeyHolder(key string) *keyHolder {
	return &keyHolder{key: key}
}

func (k *keyHolder) get() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

func (k *keyHolder) set(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = key
}
