package main

import (
	"fmt"

	"trade-store-go/internal/cache"
	"trade-store-go/internal/config"
	"trade-store-go/internal/database"
	"trade-store-go/internal/logger"
	"trade-store-go/internal/memstore"
	"trade-store-go/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	configPath string
	log        *zap.Logger
	store      storage.TradeStore
	closers    []func()
}

// newRootCmd builds the command tree around a. The caller runs a.close
// once Execute returns; cobra skips post-run hooks when a command fails.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tradestore",
		Short: "Record and query executed trade legs",
		Long: `tradestore persists trade legs keyed by client id (partition key)
and trade uid (row key).

Examples:
  tradestore migrate
  tradestore record --client client-42 --asset BTCUSD --volume 1.5
  tradestore show client-42 01HQ...
  tradestore list client-42 --output yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "./configs", "directory containing config.yml")

	root.AddCommand(
		newMigrateCmd(a),
		newRecordCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
	)
	return root
}

func (a *app) open() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	a.log, err = logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.log.Sync() })

	a.store, err = a.openStore(&cfg)
	if err != nil {
		a.log.Error("Failed to open trade store", zap.Error(err))
		a.close()
		return err
	}
	return nil
}

func (a *app) openStore(cfg *config.Config) (storage.TradeStore, error) {
	var store storage.TradeStore
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		a.log.Warn("Using in-memory trade store; nothing is persisted")
		store = memstore.New(a.log)
	default:
		db, err := database.NewDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}
		a.log.Info("Database connection successful and schema migrated.", zap.String("dsn", cfg.Database.DSN))
		store = database.NewTradeRepository(db, cfg.Storage, a.log)
	}

	cached, err := cache.New(store, cfg.Storage.CacheMaxCost, cfg.Storage.CacheTTL, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cached.Close)
	return cached, nil
}

// close releases everything open collected, newest first. Safe to call twice.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
