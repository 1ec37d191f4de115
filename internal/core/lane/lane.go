package lane

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/dep2p/go-tagmux/internal/core/channel"
	"github.com/dep2p/go-tagmux/internal/core/registry"
)

// ============================================================================
// 通道构造
// ============================================================================

// New 创建一条缓冲区中已有 first 的通道
//
// slot 是注册表为该通道发送端铸造的 Slot，由返回的 Receiver 独占。
// buffer <= 0 表示无界。返回的 Sender 持有通道的初始生产者引用，
// 通常存入注册表；通道被驱逐时由 EvictHook 关闭。
func New[T comparable, V any](tag T, buffer int, slot *registry.Slot[T, *Sender[T, V]], first V) (*Sender[T, V], *Receiver[T, V]) {
	if slot.Key() != tag {
		panic(fmt.Sprintf("%v: slot %v, tag %v", ErrTagMismatch, slot.Key(), tag))
	}

	ch := channel.New[Tagged[T, V]](buffer)
	// 新建通道为空，不会失败
	if err := ch.TrySend(Tagged[T, V]{Tag: tag, Value: first}); err != nil {
		panic(fmt.Sprintf("enqueue into fresh lane %v: %v", tag, err))
	}

	return newSender(tag, ch), newReceiver(ch, slot)
}

// EvictHook 返回注册表驱逐回调
//
// 条目被移除时关闭通道接收端（之后的发送返回 *SendError）并归还
// 注册表所持发送端的引用。
func EvictHook[T comparable, V any]() func(T, *Sender[T, V]) {
	return func(_ T, tx *Sender[T, V]) {
		tx.ch.Close()
		tx.Close()
	}
}

// ============================================================================
// Lane 实现
// ============================================================================

// Lane 同一 tag 的发送端与接收端
//
// 在 Mux 中，发送端写入共享的汇聚通道，接收端读取该 tag 的入站值。
type Lane[T comparable, V any] struct {
	tx *Sender[T, V]
	rx *Receiver[T, V]
}

// NewLane 组合发送端与接收端
//
// tag 不一致是编程错误，直接 panic。
func NewLane[T comparable, V any](tx *Sender[T, V], rx *Receiver[T, V]) *Lane[T, V] {
	if tx.Tag() != rx.Tag() {
		panic(fmt.Sprintf("%v: sender %v, receiver %v", ErrTagMismatch, tx.Tag(), rx.Tag()))
	}
	return &Lane[T, V]{tx: tx, rx: rx}
}

// Tag 返回通道 tag
func (l *Lane[T, V]) Tag() T {
	return l.rx.Tag()
}

// Sender 返回发送端
func (l *Lane[T, V]) Sender() *Sender[T, V] {
	return l.tx
}

// Receiver 返回接收端
func (l *Lane[T, V]) Receiver() *Receiver[T, V] {
	return l.rx
}

// Split 拆分为可分别交给两个 goroutine 的发送端与接收端
func (l *Lane[T, V]) Split() (*Sender[T, V], *Receiver[T, V]) {
	return l.tx, l.rx
}

// Close 关闭接收端并归还发送端引用
func (l *Lane[T, V]) Close() error {
	return multierr.Combine(l.rx.Close(), l.tx.Close())
}
