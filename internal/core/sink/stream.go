package sink

import (
	"context"
	"iter"

	"github.com/dep2p/go-tagmux/internal/core/lane"
)

// Stream 由 Sink 创建、经 Accept 交给调用方的单个 tag 的流
//
// Recv 读取该 tag 的入站值，Send 把回复写入 Sink 的输出汇聚通道。
type Stream[T comparable, V any] struct {
	l *lane.Lane[T, V]
}

// Tag 返回流的 tag
func (s *Stream[T, V]) Tag() T {
	return s.l.Tag()
}

// Recv 接收一个值，流结束时返回 io.EOF
func (s *Stream[T, V]) Recv(ctx context.Context) (V, error) {
	return s.l.Receiver().Recv(ctx)
}

// TryRecv 非阻塞接收
func (s *Stream[T, V]) TryRecv() (V, error) {
	return s.l.Receiver().TryRecv()
}

// All 返回逐个接收值的迭代器
func (s *Stream[T, V]) All(ctx context.Context) iter.Seq[V] {
	return s.l.Receiver().All(ctx)
}

// Send 回复一个值
func (s *Stream[T, V]) Send(ctx context.Context, v V) error {
	return s.l.Sender().Send(ctx, v)
}

// Close 关闭流，Sink 中该 tag 的条目随之移除
func (s *Stream[T, V]) Close() error {
	return s.l.Close()
}

// IsClosed 流是否已从 Sink 中移除
func (s *Stream[T, V]) IsClosed() bool {
	return s.l.Receiver().IsClosed()
}

// Lane 返回底层通道
func (s *Stream[T, V]) Lane() *lane.Lane[T, V] {
	return s.l
}
