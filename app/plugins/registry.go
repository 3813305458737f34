// Package plugins maps configured driver names to their implementations.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/core/assignment"
)

// StoreFactory opens an assignment store from its configuration.
type StoreFactory func(cfg config.StoreConfig) (assignment.Store, error)

var Stores = map[string]StoreFactory{}

func RegisterStore(name string, f StoreFactory) { Stores[name] = f }

// OpenStore opens the store selected by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (assignment.Store, error) {
	f, ok := Stores[cfg.Driver]
	if !ok {
		names := make([]string, 0, len(Stores))
		for n := range Stores {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown store driver %q (known: %v)", cfg.Driver, names)
	}
	return f(cfg)
}
