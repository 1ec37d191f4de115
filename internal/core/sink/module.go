package sink

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/core/bus"
	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/internal/core/metrics"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params Sink 依赖参数
type Params struct {
	fx.In

	LC         fx.Lifecycle
	UnifiedCfg *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Result Fx 模块输出结果
//
// 汇聚通道带 name 标签，避免与同类型的 mux 汇聚通道冲突。
type Result[T comparable, V any] struct {
	fx.Out

	Sink    *Sink[T, V]
	Output  *lane.Aggregator[T, V] `name:"sink_out"`
	Metrics *metrics.Collector     `name:"sink_metrics"`
}

// Module 返回 Fx 模块
func Module[T comparable, V any]() fx.Option {
	return fx.Module(Name,
		fx.Provide(Provide[T, V]),
	)
}

// Provide 根据参数创建 Sink 并注册生命周期
func Provide[T comparable, V any](p Params) (Result[T, V], error) {
	cfg := p.UnifiedCfg
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Sink.Validate(); err != nil {
		return Result[T, V]{}, err
	}

	collector, err := metrics.FromConfig(cfg, p.Registerer, Name)
	if err != nil {
		return Result[T, V]{}, err
	}

	s, out := NewFromConfig[T, V](cfg.Sink, bus.WithMetrics(collector))

	p.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			err := s.Close()
			collector.Unregister(p.Registerer)
			return err
		},
	})

	return Result[T, V]{Sink: s, Output: out, Metrics: collector}, nil
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "sink"
	// Description 模块描述
	Description = "单向分流器模块，按 tag 把入站值路由到等待接收的流"
)
