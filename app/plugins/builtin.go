package plugins

import (
	"fmt"

	"github.com/kilianp07/prodsched/core/factory"
	"github.com/kilianp07/prodsched/core/store"
	infrastore "github.com/kilianp07/prodsched/infra/store"
)

func init() {
	_ = RegisterStore("memory", func(map[string]any) (store.Store, error) {
		return store.NewMemoryStore(), nil
	})
	_ = RegisterStore("sqlite", func(conf map[string]any) (store.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		return infrastore.NewSQLiteStore(c.Path)
	})
}
