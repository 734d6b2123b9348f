package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/oasis-ingest/internal/store"
)

// initStore opens the configured database and makes sure the table exists.
func initStore(ctx context.Context) (store.Store, error) {
	log := zap.L().With(
		zap.String("src", cfg.Ingest.ResourceName),
		zap.String("action", "initdb"),
		zap.String("db_path", cfg.Store.DatabasePath),
	)

	st, err := store.NewSQLite(cfg.Store.DatabasePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("failed to create schema", zap.Error(err))
		_ = st.Close()
		return nil, eris.Wrap(err, "ensure schema")
	}
	log.Debug("store ready")
	return st, nil
}
