// Command parley-kb validates a YAML knowledge-base file and optionally
// loads it into a SQLite knowledge store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/parleyhq/parley/internal/kbload"
	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/internal/storage/memory"
	"github.com/parleyhq/parley/internal/storage/sqlite"
)

func main() {
	kbPath := flag.String("kb", "", "Path to the YAML knowledge-base file (required)")
	dbPath := flag.String("db", "", "SQLite database to load into; omit to validate only")
	flag.Parse()

	if *kbPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var store storage.WritableStore
	if *dbPath == "" {
		// Validate-only mode: load into a throwaway in-memory store.
		store = memory.NewStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
		s, err := sqlite.NewStore(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer s.Close()
		store = s
	}

	result, err := kbload.LoadFile(context.Background(), *kbPath, store)
	if err != nil {
		log.Fatalf("Knowledge base invalid: %v", err)
	}

	if *dbPath == "" {
		fmt.Printf("OK: %s is valid (%d objects, %d generated identifiers)\n",
			*kbPath, result.ObjectsLoaded, result.GeneratedIDs)
	} else {
		fmt.Printf("Loaded %d objects into %s (%d generated identifiers)\n",
			result.ObjectsLoaded, *dbPath, result.GeneratedIDs)
	}
}
