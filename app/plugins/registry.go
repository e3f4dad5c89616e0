// Package plugins maps configured backend names to store implementations.
package plugins

import (
	"github.com/kilianp07/prodsched/core/factory"
	"github.com/kilianp07/prodsched/core/store"
)

var stores = factory.NewRegistry[store.Store]()

// RegisterStore adds a store backend identified by name.
func RegisterStore(name string, f factory.Factory[store.Store]) error {
	return stores.Register(name, f)
}

// NewStore builds the store backend named by backend.
func NewStore(backend string, conf map[string]any) (store.Store, error) {
	return stores.Create(factory.ModuleConfig{Type: backend, Conf: conf})
}

// StoreBackends lists the registered backend names.
func StoreBackends() []string { return stores.Names() }
