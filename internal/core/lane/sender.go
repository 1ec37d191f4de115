package lane

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"github.com/dep2p/go-tagmux/internal/core/channel"
)

// ============================================================================
// Sender 实现
// ============================================================================

// Sender 带 tag 的发送端
//
// 每个 Sender 持有底层通道的一个生产者引用。Clone 派生新的引用，
// Close 归还本副本的引用；所有副本都关闭后接收端在排空后收到 io.EOF。
type Sender[T comparable, V any] struct {
	tag      T
	ch       *channel.Channel[Tagged[T, V]]
	released atomic.Bool
}

// newSender 包装一个已经持有生产者引用的通道
func newSender[T comparable, V any](tag T, ch *channel.Channel[Tagged[T, V]]) *Sender[T, V] {
	return &Sender[T, V]{tag: tag, ch: ch}
}

// Tag 返回发送端的 tag
func (s *Sender[T, V]) Tag() T {
	return s.tag
}

// Send 发送一个值，缓冲区满时挂起
//
// 接收端已关闭时返回 *SendError，携带未送达的值；ctx 取消时返回 ctx.Err()。
func (s *Sender[T, V]) Send(ctx context.Context, v V) error {
	if s.released.Load() {
		return &SendError[T, V]{Tag: s.tag, Value: v}
	}
	return s.wrap(s.ch.Send(ctx, Tagged[T, V]{Tag: s.tag, Value: v}), v)
}

// TrySend 非阻塞发送，缓冲区满时返回 ErrFull
func (s *Sender[T, V]) TrySend(v V) error {
	if s.released.Load() {
		return &SendError[T, V]{Tag: s.tag, Value: v}
	}
	return s.wrap(s.ch.TrySend(Tagged[T, V]{Tag: s.tag, Value: v}), v)
}

// SendAll 依次发送 seq 中的所有值，遇到第一个错误即返回
func (s *Sender[T, V]) SendAll(ctx context.Context, seq iter.Seq[V]) error {
	for v := range seq {
		if err := s.Send(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// Clone 派生一个共享同一通道的发送端
//
// 原通道的生产者已全部释放时，返回的副本处于关闭状态。
func (s *Sender[T, V]) Clone() *Sender[T, V] {
	c := newSender(s.tag, s.ch)
	if !s.ch.Acquire() {
		c.released.Store(true)
	}
	return c
}

// Close 归还本副本的生产者引用
//
// Close 是并发安全的，可以多次调用。
func (s *Sender[T, V]) Close() error {
	if s.released.CompareAndSwap(false, true) {
		s.ch.Release()
	}
	return nil
}

// IsClosed 本副本已关闭或接收端已关闭
func (s *Sender[T, V]) IsClosed() bool {
	return s.released.Load() || s.ch.IsClosed()
}

func (s *Sender[T, V]) wrap(err error, v V) error {
	if errors.Is(err, channel.ErrClosed) {
		return &SendError[T, V]{Tag: s.tag, Value: v}
	}
	return err
}
