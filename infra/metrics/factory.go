package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/prodsched/core/factory"
	coremetrics "github.com/kilianp07/prodsched/core/metrics"
)

// init registers built-in run sinks.
func init() {
	_ = coremetrics.RegisterRunSink("nop", func(map[string]any) (coremetrics.RunSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterRunSink("prometheus", func(map[string]any) (coremetrics.RunSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterRunSink("influx", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
