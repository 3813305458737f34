package plugins

import (
	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/infra/store"
)

func init() {
	RegisterStore("memory", func(config.StoreConfig) (assignment.Store, error) {
		return assignment.NewMemoryStore(), nil
	})
	RegisterStore("sqlite", func(cfg config.StoreConfig) (assignment.Store, error) {
		return store.NewSQLiteStore(cfg.Path)
	})
}
