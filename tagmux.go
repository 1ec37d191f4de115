package tagmux

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/core/bus"
	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/internal/core/metrics"
	"github.com/dep2p/go-tagmux/internal/core/mux"
	"github.com/dep2p/go-tagmux/internal/core/registry"
	"github.com/dep2p/go-tagmux/internal/core/sink"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "tagmux " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              公共类型
// ════════════════════════════════════════════════════════════════════════════

type (
	// Map 带代际槽位的并发注册表
	Map[K comparable, V any] = registry.Map[K, V]

	// Slot 注册表条目的代际句柄
	Slot[K comparable, V any] = registry.Slot[K, V]

	// Sender 通道发送端
	Sender[T comparable, V any] = lane.Sender[T, V]

	// Receiver 通道接收端
	Receiver[T comparable, V any] = lane.Receiver[T, V]

	// Lane 单个 tag 的双向端点
	Lane[T comparable, V any] = lane.Lane[T, V]

	// Aggregator 多个通道共享的出站汇聚通道
	Aggregator[T comparable, V any] = lane.Aggregator[T, V]

	// Tagged 带 tag 的值
	Tagged[T comparable, V any] = lane.Tagged[T, V]

	// SendError 发送失败，携带未送达的值
	SendError[T comparable, V any] = lane.SendError[T, V]

	// Bus tag → 通道的分发总线
	Bus[T comparable, V any] = bus.Bus[T, V]

	// Mux 多路复用器
	Mux[T comparable, V any] = mux.Mux[T, V]

	// Sink 单向分流器
	Sink[T comparable, V any] = sink.Sink[T, V]

	// Stream Sink 交付给接收方的单 tag 流
	Stream[T comparable, V any] = sink.Stream[T, V]

	// Option Bus 配置选项，Mux 与 Sink 共用
	Option = bus.Option

	// Collector 指标收集器
	Collector = metrics.Collector

	// Stats 指标快照
	Stats = metrics.Stats
)

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建 Mux，返回 Mux 与唯一的汇聚通道
//
// aggregatorBuffer、laneBuffer <= 0 表示无界。
func New[T comparable, V any](aggregatorBuffer, laneBuffer int, opts ...Option) (*Mux[T, V], *Aggregator[T, V]) {
	return mux.New[T, V](aggregatorBuffer, laneBuffer, opts...)
}

// NewFromConfig 按统一配置创建 Mux
func NewFromConfig[T comparable, V any](cfg *config.Config, opts ...Option) (*Mux[T, V], *Aggregator[T, V], error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Mux.Validate(); err != nil {
		return nil, nil, err
	}
	m, agg := mux.NewFromConfig[T, V](cfg.Mux, opts...)
	return m, agg, nil
}

// NewSink 创建 Sink，返回 Sink 与出站汇聚通道
func NewSink[T comparable, V any](streamBuffer, pendingBuffer, outBuffer int, opts ...Option) (*Sink[T, V], *Aggregator[T, V]) {
	return sink.New[T, V](streamBuffer, pendingBuffer, outBuffer, opts...)
}

// NewBus 创建分发总线
func NewBus[T comparable, V any](laneBuffer int, opts ...Option) *Bus[T, V] {
	return bus.New[T, V](laneBuffer, opts...)
}

// NewMap 创建注册表
func NewMap[K comparable, V any]() *Map[K, V] {
	return registry.New[K, V]()
}

// NewAggregator 创建汇聚通道
func NewAggregator[T comparable, V any](buffer int) *Aggregator[T, V] {
	return lane.NewAggregator[T, V](buffer)
}

// NewCollector 创建并注册指标收集器
func NewCollector(namespace, subsystem string, reg prometheus.Registerer) (*Collector, error) {
	return metrics.New(namespace, subsystem, reg)
}

// WithShards 设置注册表分片数
func WithShards(n int) Option {
	return bus.WithShards(n)
}

// WithMetrics 设置指标收集器
func WithMetrics(c *Collector) Option {
	return bus.WithMetrics(c)
}

// ════════════════════════════════════════════════════════════════════════════
//                              Fx 模块
// ════════════════════════════════════════════════════════════════════════════

// Module 返回提供 Mux 与汇聚通道的 Fx 模块
func Module[T comparable, V any]() fx.Option {
	return mux.Module[T, V]()
}

// SinkModule 返回提供 Sink 与出站汇聚通道的 Fx 模块
func SinkModule[T comparable, V any]() fx.Option {
	return sink.Module[T, V]()
}
