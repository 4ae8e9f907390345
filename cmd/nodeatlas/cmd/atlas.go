package cmd

import (
	"context"

	"github.com/spf13/viper"

	"github.com/agentstation/nodeatlas"
	"github.com/agentstation/nodeatlas/internal/store"
	"github.com/agentstation/nodeatlas/pkg/casing"
)

var dbPath string

// openStore opens the record store at the configured path.
func openStore() (*store.Store, error) {
	table, err := casing.Embedded()
	if err != nil {
		return nil, err
	}
	return store.Open(viper.GetString("db"), store.WithNormalizer(table.Normalize))
}

// loadAtlas opens the store and builds a fresh catalog snapshot from
// it. The returned store must be closed by the caller.
func loadAtlas(ctx context.Context) (nodeatlas.Atlas, *store.Store, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	atlas, err := nodeatlas.New(nodeatlas.WithRecordSource(s))
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	if _, err := atlas.Refresh(ctx); err != nil {
		s.Close()
		return nil, nil, err
	}
	return atlas, s, nil
}
