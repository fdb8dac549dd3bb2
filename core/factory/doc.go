// Package factory builds pluggable components from a type name and a map of
// raw settings. Solver backends, metrics sinks and run log stores are all
// created through a Registry.
//
//	reg := factory.NewRegistry[runlog.Store]()
//	_ = reg.Register("jsonl", func(conf map[string]any) (runlog.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return runlog.NewJSONLStore(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "runs.jsonl"}})
package factory
