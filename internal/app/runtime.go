package app

import (
	"context"

	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/internal/core/metrics"
	"github.com/dep2p/go-tagmux/internal/core/mux"
	"github.com/dep2p/go-tagmux/internal/core/sink"
)

// Runtime 表示一个已通过 fx 组装完成的运行时
//
// 按运行模式只填充一组组件：
//   - ModeMux：Mux 与 Aggregator
//   - ModeSink：Sink 与 Out
type Runtime[T comparable, V any] struct {
	Mode Mode

	Mux        *mux.Mux[T, V]
	Aggregator *lane.Aggregator[T, V]

	Sink *sink.Sink[T, V]
	Out  *lane.Aggregator[T, V]

	// Metrics 未启用指标时为 nil，方法仍可安全调用
	Metrics *metrics.Collector

	stop func(ctx context.Context) error
}

// Stats 返回当前指标快照
func (r *Runtime[T, V]) Stats() metrics.Stats {
	return r.Metrics.Snapshot()
}

// Stop 停止运行时（触发 fx 生命周期 OnStop）
func (r *Runtime[T, V]) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	return r.stop(ctx)
}
