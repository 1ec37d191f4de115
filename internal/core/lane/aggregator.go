package lane

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/dep2p/go-tagmux/internal/core/channel"
)

// ============================================================================
// Aggregator 实现
// ============================================================================

// Aggregator 汇聚通道
//
// 所有通道的回复都以 (tag, value) 的形式写入同一个 Aggregator。
// 创建者持有一个生产者引用；创建者 Release 且所有 Bind 出的发送端
// 都 Close 之后，Recv 在排空缓冲区后返回 io.EOF。
type Aggregator[T comparable, V any] struct {
	ch       *channel.Channel[Tagged[T, V]]
	released atomic.Bool
}

// NewAggregator 创建汇聚通道，buffer <= 0 表示无界
func NewAggregator[T comparable, V any](buffer int) *Aggregator[T, V] {
	return &Aggregator[T, V]{ch: channel.New[Tagged[T, V]](buffer)}
}

// Bind 返回一个以 tag 标记、写入本汇聚通道的发送端
//
// 创建者与所有发送端都已释放时返回 false。
func (a *Aggregator[T, V]) Bind(tag T) (*Sender[T, V], bool) {
	if !a.ch.Acquire() {
		return nil, false
	}
	return newSender(tag, a.ch), true
}

// Recv 接收一个带 tag 的值
func (a *Aggregator[T, V]) Recv(ctx context.Context) (Tagged[T, V], error) {
	return a.ch.Recv(ctx)
}

// TryRecv 非阻塞接收
func (a *Aggregator[T, V]) TryRecv() (Tagged[T, V], error) {
	return a.ch.TryRecv()
}

// All 返回逐个接收 (tag, value) 的迭代器，在 io.EOF 或 ctx 取消时结束
func (a *Aggregator[T, V]) All(ctx context.Context) iter.Seq2[T, V] {
	return func(yield func(T, V) bool) {
		for {
			t, err := a.ch.Recv(ctx)
			if err != nil || !yield(t.Tag, t.Value) {
				return
			}
		}
	}
}

// Close 关闭接收端，之后所有发送端的发送返回 *SendError
func (a *Aggregator[T, V]) Close() error {
	a.ch.Close()
	return nil
}

// IsClosed 接收端是否已关闭
func (a *Aggregator[T, V]) IsClosed() bool {
	return a.ch.IsClosed()
}

// Release 归还创建者的生产者引用，可以多次调用
func (a *Aggregator[T, V]) Release() {
	if a.released.CompareAndSwap(false, true) {
		a.ch.Release()
	}
}

// Len 已缓冲未接收的值数量
func (a *Aggregator[T, V]) Len() int {
	return a.ch.Len()
}

// Cap 缓冲区容量，0 表示无界
func (a *Aggregator[T, V]) Cap() int {
	return a.ch.Cap()
}

// Senders 当前存活的生产者引用数（含创建者）
func (a *Aggregator[T, V]) Senders() int {
	return a.ch.Producers()
}
