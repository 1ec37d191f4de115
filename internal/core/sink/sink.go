package sink

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/core/bus"
	"github.com/dep2p/go-tagmux/internal/core/channel"
	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/pkg/lib/log"
)

var logger = log.Logger("core/sink")

// ErrClosed 分流器已关闭
var ErrClosed = errors.New("sink closed")

// ============================================================================
// Sink 实现
// ============================================================================

// Sink 单向分流器
//
// Send 把值路由到 tag 对应的流；tag 首次出现时创建新流并放入等待队列，
// 由调用方通过 Accept 取走。与 Mux 不同，新流不会返回给 Send 的调用方。
type Sink[T comparable, V any] struct {
	bus     *bus.Bus[T, V]
	pending *channel.Channel[*Stream[T, V]]
	out     *lane.Aggregator[T, V]

	acceptTimeout time.Duration
	closed        atomic.Bool
}

// New 创建 Sink，返回 Sink 与流回复的汇聚通道
//
// 缓冲区大小 <= 0 表示无界。
func New[T comparable, V any](streamBuffer, pendingBuffer, outBuffer int, opts ...bus.Option) (*Sink[T, V], *lane.Aggregator[T, V]) {
	out := lane.NewAggregator[T, V](outBuffer)
	s := &Sink[T, V]{
		bus:     bus.New[T, V](streamBuffer, opts...),
		pending: channel.New[*Stream[T, V]](pendingBuffer),
		out:     out,
	}
	return s, out
}

// NewFromConfig 按配置创建 Sink
//
// cfg.AcceptTimeout > 0 时 Accept 在该时间内没有新流则返回 context.DeadlineExceeded。
func NewFromConfig[T comparable, V any](cfg config.SinkConfig, opts ...bus.Option) (*Sink[T, V], *lane.Aggregator[T, V]) {
	s, out := New[T, V](cfg.StreamBuffer, cfg.PendingBuffer, cfg.OutBuffer, opts...)
	s.acceptTimeout = cfg.AcceptTimeout.Duration()
	return s, out
}

// Send 把 v 路由到 tag 对应的流
//
// 新流先放入等待队列，入队成功后才对其他发送者可见，因此 Send 返回 nil
// 的值总在某个可被 Accept 取走的流中。等待队列满时挂起直到有空位；
// Accept 端已关闭时返回 *lane.SendError，带回未送达的 (tag, v)。
func (s *Sink[T, V]) Send(ctx context.Context, tag T, v V) error {
	for {
		if s.closed.Load() {
			return ErrClosed
		}

		rx, err := s.bus.PushAdmit(ctx, tag, v, s.admit)
		switch {
		case err == nil:
			if rx != nil {
				if s.closed.Load() {
					// 与 Close 并发创建的流已在队列中，只需把它移出注册表
					s.bus.Clear()
				}
				logger.Debug("新流等待接收", "tag", tag)
			}
			return nil

		case errors.Is(err, channel.ErrFull):
			if err := s.pending.WaitRoom(ctx); err != nil && !errors.Is(err, channel.ErrClosed) {
				return err
			}

		case errors.Is(err, channel.ErrClosed):
			return &lane.SendError[T, V]{Tag: tag, Value: v}

		default:
			return err
		}
	}
}

// admit 把新流放入等待队列，在流发布到注册表之前执行
func (s *Sink[T, V]) admit(rx *lane.Receiver[T, V]) error {
	tx, ok := s.out.Bind(rx.Tag())
	if !ok {
		return ErrClosed
	}
	if err := s.pending.TrySend(&Stream[T, V]{l: lane.NewLane(tx, rx)}); err != nil {
		tx.Close()
		return err
	}
	return nil
}

// Accept 取走一个新流
//
// Sink 关闭且等待队列排空后返回 io.EOF。
func (s *Sink[T, V]) Accept(ctx context.Context) (*Stream[T, V], error) {
	if s.acceptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.acceptTimeout)
		defer cancel()
	}
	return s.pending.Recv(ctx)
}

// CloseAccept 关闭接收端
//
// 之后创建新流的 Send 返回 *lane.SendError。尚未取走的流被关闭后返回，
// 调用方仍可排空其中已缓冲的值。
func (s *Sink[T, V]) CloseAccept() []*Stream[T, V] {
	s.pending.Close()

	var left []*Stream[T, V]
	for {
		st, err := s.pending.TryRecv()
		if err != nil {
			return left
		}
		st.Close()
		left = append(left, st)
	}
}

// Close 关闭分流器
//
// 驱逐所有流并归还 Sink 持有的等待队列与汇聚通道引用。Close 可以多次调用。
func (s *Sink[T, V]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.bus.Clear()
	s.pending.Release()
	s.out.Release()
	logger.Debug("分流器已关闭")
	return nil
}

// IsClosed 是否已关闭
func (s *Sink[T, V]) IsClosed() bool {
	return s.closed.Load()
}

// Len 当前活跃流数量
func (s *Sink[T, V]) Len() int {
	return s.bus.Len()
}

// Pending 等待 Accept 的流数量
func (s *Sink[T, V]) Pending() int {
	return s.pending.Len()
}
