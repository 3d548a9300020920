// Package stride wires the synchronization core into an application.
package stride

import (
	"context"
	"fmt"

	"github.com/strideapp/stride/internal/core/cache"
	"github.com/strideapp/stride/internal/core/config"
	"github.com/strideapp/stride/internal/core/kv"
	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/data/db"
	"github.com/strideapp/stride/internal/data/stores"
	"github.com/strideapp/stride/internal/progress"
	"github.com/strideapp/stride/internal/remote"
)

// App is the central entry point for all stride operations.
// Commands and the TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Progress *progress.Store
	Retrier  *progress.Retrier
	Focus    *progress.FocusRefresher
	Remote   remote.Service
	Config   *config.Config
	DB       *db.DB
}

// NewApp constructs an App from configuration: SQLite persistence, snapshot
// cache, remote client, and the progress store with its companions.
func NewApp(cfg *config.Config) (*App, func(), error) {
	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closer := func() { _ = database.Close() }

	snapshots := kv.Scoped[program.Snapshot](stores.NewKVStore(database), "snapshot")

	snapCache := cache.New(
		cache.WithTTL(cfg.Sync.CacheTTL),
		cache.WithCapacity(cfg.Sync.CacheCapacity),
	)

	client := remote.NewClient(cfg.API.BaseURL, cfg.API.Token)

	store := progress.NewStore(client, snapCache,
		progress.WithPersister(snapshots),
		progress.WithCoalescerDelay(cfg.Sync.DebounceWindow),
	)
	store.WarmStart(context.Background())

	return &App{
		Progress: store,
		Retrier: progress.NewRetrier(store,
			progress.WithRetryAttempts(cfg.Sync.RetryAttempts),
			progress.WithRetryDelay(cfg.Sync.RetryDelay),
		),
		Focus: progress.NewFocusRefresher(store,
			progress.WithFocusSettle(cfg.Sync.FocusSettle),
		),
		Remote: client,
		Config: cfg,
		DB:     database,
	}, closer, nil
}
