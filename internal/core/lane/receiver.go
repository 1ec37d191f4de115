package lane

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"runtime"
	"sync"

	"github.com/dep2p/go-tagmux/internal/core/channel"
	"github.com/dep2p/go-tagmux/internal/core/registry"
)

// ============================================================================
// Receiver 实现
// ============================================================================

// Receiver 带 tag 的接收端
//
// Receiver 独占其发送端注册表条目的 Slot：Close（或收到 io.EOF）时
// 释放 Slot，条目随之从注册表移除。未 Close 就被回收的 Receiver
// 由 runtime cleanup 兜底释放。
type Receiver[T comparable, V any] struct {
	ch   *channel.Channel[Tagged[T, V]]
	slot *registry.Slot[T, *Sender[T, V]]

	closeOnce sync.Once
	cleanup   runtime.Cleanup
}

// orphan 是 cleanup 回调的参数，不得引用 Receiver 本身
type orphan[T comparable, V any] struct {
	ch   *channel.Channel[Tagged[T, V]]
	slot *registry.Slot[T, *Sender[T, V]]
}

func releaseOrphan[T comparable, V any](o orphan[T, V]) {
	o.slot.Release()
	o.ch.Close()
}

func newReceiver[T comparable, V any](ch *channel.Channel[Tagged[T, V]], slot *registry.Slot[T, *Sender[T, V]]) *Receiver[T, V] {
	rx := &Receiver[T, V]{ch: ch, slot: slot}
	rx.cleanup = runtime.AddCleanup(rx, releaseOrphan[T, V], orphan[T, V]{ch: ch, slot: slot})
	return rx
}

// Tag 返回接收端的 tag
func (rx *Receiver[T, V]) Tag() T {
	return rx.slot.Key()
}

// Recv 接收一个值
//
// 缓冲区排空且通道结束（接收端关闭或发送端全部释放）时返回 io.EOF，
// 此时 Slot 被释放。收到 tag 不一致的值会 panic。
func (rx *Receiver[T, V]) Recv(ctx context.Context) (V, error) {
	t, err := rx.ch.Recv(ctx)
	return rx.unwrap(t, err)
}

// TryRecv 非阻塞接收，无值时返回 ErrEmpty
func (rx *Receiver[T, V]) TryRecv() (V, error) {
	t, err := rx.ch.TryRecv()
	return rx.unwrap(t, err)
}

// All 返回逐个接收值的迭代器
//
// 迭代在 io.EOF 或 ctx 取消时结束。
func (rx *Receiver[T, V]) All(ctx context.Context) iter.Seq[V] {
	return func(yield func(V) bool) {
		for {
			v, err := rx.Recv(ctx)
			if err != nil || !yield(v) {
				return
			}
		}
	}
}

// Close 关闭接收端
//
// 释放 Slot（注册表中仍属于本通道的条目被移除），之后的发送返回 *SendError。
// 已缓冲的值仍可接收，排空后返回 io.EOF。Close 可以多次调用。
func (rx *Receiver[T, V]) Close() error {
	rx.closeOnce.Do(func() {
		rx.cleanup.Stop()
		rx.slot.Release()
		rx.ch.Close()
	})
	return nil
}

// IsClosed 本接收端是否不再是该 tag 在注册表中的拥有者
//
// 以注册表成员关系（含代数）为准，而非底层通道的关闭标志。
func (rx *Receiver[T, V]) IsClosed() bool {
	return !rx.slot.IsValid()
}

// Len 已缓冲未接收的值数量
func (rx *Receiver[T, V]) Len() int {
	return rx.ch.Len()
}

// Cap 缓冲区容量，0 表示无界
func (rx *Receiver[T, V]) Cap() int {
	return rx.ch.Cap()
}

func (rx *Receiver[T, V]) unwrap(t Tagged[T, V], err error) (V, error) {
	if err != nil {
		if errors.Is(err, io.EOF) {
			rx.slot.Release()
		}
		var zero V
		return zero, err
	}
	if t.Tag != rx.slot.Key() {
		panic(fmt.Sprintf("%v: receiver %v got %v", ErrTagMismatch, rx.slot.Key(), t.Tag))
	}
	return t.Value, nil
}
