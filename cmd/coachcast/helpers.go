package main

import (
	"fmt"

	"coachcast/internal/config"
	"coachcast/internal/queue"
)

// openStore opens the job store directly for maintenance commands that do
// not need a running daemon. The store uses WAL mode, so a concurrent
// daemon holding the database is fine.
func openStore(cfg *config.Config) (*queue.Store, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	return store, nil
}
