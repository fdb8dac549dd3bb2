package metrics

import (
	"github.com/IRENA-FlexTool/FlexTool/core/factory"
	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
	"github.com/IRENA-FlexTool/FlexTool/infra/logger"
)

func init() {
	_ = coremetrics.RegisterSink("nop", func(map[string]any) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.Sink, error) {
		return NewPromSink()
	})
	_ = coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c, logger.New("influx-sink")), nil
	})
}
