package mux

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/core/bus"
	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/pkg/lib/log"
)

var logger = log.Logger("core/mux")

// ErrClosed 多路复用器已关闭
var ErrClosed = errors.New("mux closed")

// ============================================================================
// Mux 实现
// ============================================================================

// Mux 多路复用器
//
// Mux 把入站值按 tag 分发到各自的通道；每条新通道的发送端都绑定到同一个
// 汇聚通道，所有处理协程的回复以 (tag, value) 的形式汇聚到 New 返回的
// Aggregator 上。
type Mux[T comparable, V any] struct {
	bus    *bus.Bus[T, V]
	agg    *lane.Aggregator[T, V]
	closed atomic.Bool
}

// New 创建 Mux，返回 Mux 与唯一的汇聚通道
//
// aggregatorBuffer、laneBuffer <= 0 表示无界。
func New[T comparable, V any](aggregatorBuffer, laneBuffer int, opts ...bus.Option) (*Mux[T, V], *lane.Aggregator[T, V]) {
	agg := lane.NewAggregator[T, V](aggregatorBuffer)
	m := &Mux[T, V]{
		bus: bus.New[T, V](laneBuffer, opts...),
		agg: agg,
	}
	return m, agg
}

// NewFromConfig 按配置创建 Mux
func NewFromConfig[T comparable, V any](cfg config.MuxConfig, opts ...bus.Option) (*Mux[T, V], *lane.Aggregator[T, V]) {
	opts = append([]bus.Option{bus.WithShards(cfg.Shards)}, opts...)
	return New[T, V](cfg.AggregatorBuffer, cfg.LaneBuffer, opts...)
}

// Send 把 v 投递到 tag 对应的通道
//
// tag 首次出现时返回新通道：接收端读取该 tag 的入站值，发送端写入汇聚通道。
// 调用方负责为新通道启动处理协程。投递到已有通道时返回 nil。
// 关闭后返回 ErrClosed；其余错误只可能是 ctx.Err()。
func (m *Mux[T, V]) Send(ctx context.Context, tag T, v V) (*lane.Lane[T, V], error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	rx, err := m.bus.Push(ctx, tag, v)
	if err != nil || rx == nil {
		return nil, err
	}

	// 与 Close 并发时新通道可能在清空之后才创建
	if m.closed.Load() {
		rx.Close()
		return nil, ErrClosed
	}

	tx, ok := m.agg.Bind(tag)
	if !ok {
		rx.Close()
		return nil, ErrClosed
	}

	logger.Debug("新通道", "tag", tag)
	return lane.NewLane(tx, rx), nil
}

// Close 关闭多路复用器
//
// 驱逐所有通道（处理协程随后观察到接收端关闭）并归还 Mux 持有的汇聚通道引用；
// 所有通道发送端都关闭后汇聚通道在排空后返回 io.EOF。Close 可以多次调用。
func (m *Mux[T, V]) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	m.bus.Clear()
	m.agg.Release()
	logger.Debug("多路复用器已关闭")
	return nil
}

// IsClosed 是否已关闭
func (m *Mux[T, V]) IsClosed() bool {
	return m.closed.Load()
}

// Len 当前活跃通道数
func (m *Mux[T, V]) Len() int {
	return m.bus.Len()
}

// Tags 当前活跃 tag 的快照
func (m *Mux[T, V]) Tags() []T {
	return m.bus.Tags()
}

// Contains tag 是否有活跃通道
func (m *Mux[T, V]) Contains(tag T) bool {
	return m.bus.Contains(tag)
}
