package mux

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

// Params Mux 依赖参数
type Params struct {
	fx.In

	LC         fx.Lifecycle
	UnifiedCfg *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Result Fx 模块输出结果
type Result[T comparable, V any] struct {
	fx.Out

	Mux        *Mux[T, V]
	Aggregator *lane.Aggregator[T, V]
	Metrics    *metrics.Collector `name:"mux_metrics"`
}

// Module 返回 Fx 模块
//
// 提供 *Mux[T, V]、*lane.Aggregator[T, V] 以及名为 mux_metrics 的指标收集器
// （未启用指标时为 nil）。停止时关闭 Mux。
func Module[T comparable, V any]() fx.Option {
	return fx.Module(Name,
		fx.Provide(Provide[T, V]),
	)
}

// Provide 根据参数创建 Mux 并注册生命周期
func Provide[T comparable, V any](p Params) (Result[T, V], error) {
	cfg := p.UnifiedCfg
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Mux.Validate(); err != nil {
		return Result[T, V]{}, err
	}

	collector, err := metrics.FromConfig(cfg, p.Registerer, Name)
	if err != nil {
		return Result[T, V]{}, err
	}

	m, agg := NewFromConfig[T, V](cfg.Mux, bus.WithMetrics(collector))

	p.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			err := m.Close()
			collector.Unregister(p.Registerer)
			return err
		},
	})

	return Result[T, V]{Mux: m, Aggregator: agg, Metrics: collector}, nil
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "mux"
	// Description 模块描述
	Description = "tag 多路复用器模块，按 tag 分发入站值并汇聚各通道的回复"
)
