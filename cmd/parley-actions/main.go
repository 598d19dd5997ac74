// Command parley-actions runs the Parley action server: it loads the
// knowledge base, registers the knowledge-base query action, and serves
// the webhook the orchestrating dialogue layer invokes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/action"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/kbload"
	"github.com/parleyhq/parley/internal/represent"
	"github.com/parleyhq/parley/internal/server"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/internal/storage/memory"
	"github.com/parleyhq/parley/internal/storage/postgres"
	"github.com/parleyhq/parley/internal/storage/remote"
	"github.com/parleyhq/parley/internal/storage/sqlite"
)

func main() {
	kbPath := flag.String("kb", "", "Path to a YAML knowledge-base file (overrides PARLEY_KB_PATH)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *kbPath != "" {
		cfg.Storage.KBPath = *kbPath
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open knowledge store: %v", err)
	}
	defer store.Close()

	if cfg.Storage.KBPath != "" {
		writable, ok := store.(storage.WritableStore)
		if !ok {
			log.Fatalf("Storage engine %q cannot load a knowledge-base file", cfg.Storage.Engine)
		}
		result, err := kbload.LoadFile(context.Background(), cfg.Storage.KBPath, writable)
		if err != nil {
			log.Fatalf("Failed to load knowledge base from %s: %v", cfg.Storage.KBPath, err)
		}
		log.Printf("Loaded %d objects from %s", result.ObjectsLoaded, cfg.Storage.KBPath)
	}

	registry := represent.NewRegistryWithNameAttribute(cfg.Knowledge.NameAttribute)

	service := action.NewService(store, registry)
	sessions := session.NewStore()

	exec := action.NewExecutor()
	exec.Register(action.NewQueryKnowledgeBaseAction(service, sessions))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr, _, err := server.Start(ctx, cfg, exec)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Parley action server ready on %s (engine: %s)", addr, cfg.Storage.Engine)

	<-ctx.Done()
	log.Println("Shutting down...")
	// Give the server's shutdown goroutine a moment to drain connections.
	time.Sleep(100 * time.Millisecond)
}

// openStore builds the configured knowledge-store backend.
func openStore(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Engine {
	case "memory", "":
		return memory.NewStore(), nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return sqlite.NewStore(cfg.Storage.DataPath + "/parley.db")
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("PARLEY_POSTGRES_DSN is required for the postgres engine")
		}
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	case "remote":
		if cfg.Storage.RemoteURL == "" {
			return nil, fmt.Errorf("PARLEY_REMOTE_URL is required for the remote engine")
		}
		return remote.NewClient(remote.Config{BaseURL: cfg.Storage.RemoteURL})
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}
