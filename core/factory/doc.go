// Package factory instantiates pluggable modules (metrics sinks, schedule
// stores) from configuration. A module is declared by a type string and a
// raw settings map; each registered factory decodes the map into its own
// typed struct.
//
//	reg := factory.NewRegistry[store.Store]()
//	_ = reg.Register("sqlite", func(conf map[string]any) (store.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return infrastore.NewSQLiteStore(c.Path)
//	})
//	st, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "plan.db"}})
package factory
