package main

import (
	"fmt"
	"path/filepath"

	"github.com/abelbrown/suss/internal/store"
)

// eventLogPath returns the path to suss.events.jsonl.
func eventLogPath() string {
	return filepath.Join(cfg.Dir(), "suss.events.jsonl")
}

// openDB opens the store in the configured data directory.
func openDB() (*store.Store, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
