package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/store"
)

func initStore(ctx context.Context) (*store.PostgresStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}
