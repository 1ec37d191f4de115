package bus

import (
	"context"
	"errors"

	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/internal/core/metrics"
	"github.com/dep2p/go-tagmux/internal/core/registry"
	"github.com/dep2p/go-tagmux/pkg/lib/log"
)

var logger = log.Logger("core/bus")

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 分发总线
//
// 注册表是"哪些 tag 当前活跃"的唯一事实来源：条目的值是该 tag 通道的发送端，
// 条目的 Slot 由通道接收端独占。
type Bus[T comparable, V any] struct {
	lanes   *registry.Map[T, *lane.Sender[T, V]]
	buffer  int
	metrics *metrics.Collector
}

// New 创建 Bus
//
// laneBuffer 为每条通道的缓冲区大小，<= 0 表示无界。
func New[T comparable, V any](laneBuffer int, opts ...Option) *Bus[T, V] {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	b := &Bus[T, V]{
		buffer:  laneBuffer,
		metrics: s.metrics,
	}

	evict := lane.EvictHook[T, V]()
	b.lanes = registry.NewWithConfig(registry.Config[T, *lane.Sender[T, V]]{
		Shards: s.shards,
		OnEvict: func(tag T, tx *lane.Sender[T, V]) {
			evict(tag, tx)
			b.metrics.LaneEvicted()
			logger.Debug("通道已驱逐", "tag", tag)
		},
	})
	return b
}

// Admit 在新通道对其他发送者可见之前调用
//
// 返回错误时通道不会被发布，该错误由 PushAdmit 原样返回。Admit 在注册表
// 分片锁内执行，不得访问同一个 Bus，也不得阻塞。
type Admit[T comparable, V any] func(rx *lane.Receiver[T, V]) error

// Push 把 v 投递到 tag 对应的通道
//
// tag 首次出现（或旧通道已关闭）时创建新通道，v 作为第一个值入队，
// 返回新通道的接收端，调用方负责为它启动处理协程。投递到已有通道时
// 返回 nil。已有通道缓冲区满时挂起。
//
// 遇到已关闭的旧通道时，只移除这一个旧条目后用同一个 (tag, v) 重试，
// 值不会丢失。唯一可能返回的错误是 ctx.Err()。
func (b *Bus[T, V]) Push(ctx context.Context, tag T, v V) (*lane.Receiver[T, V], error) {
	return b.PushAdmit(ctx, tag, v, nil)
}

// PushAdmit 与 Push 相同，但新通道发布前先交给 admit
//
// admit 拒绝时新通道连同 v 一起丢弃，返回 admit 的错误；此时没有其他
// 发送者见过该通道。
func (b *Bus[T, V]) PushAdmit(ctx context.Context, tag T, v V, admit Admit[T, V]) (*lane.Receiver[T, V], error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rx *lane.Receiver[T, V]
		tx, created, err := b.lanes.TryGetOrInsert(tag, func(slot *registry.Slot[T, *lane.Sender[T, V]]) (*lane.Sender[T, V], error) {
			var tx *lane.Sender[T, V]
			tx, rx = lane.New(tag, b.buffer, slot, v)
			if admit != nil {
				if err := admit(rx); err != nil {
					return nil, err
				}
			}
			// 发布前计数，驱逐回调不会先于创建计数
			b.metrics.LaneCreated()
			b.metrics.Delivered()
			return tx, nil
		})
		if err != nil {
			// 分片锁已释放；Slot 未插入，Release 是空操作
			rx.Close()
			return nil, err
		}
		if created {
			logger.Debug("创建新通道", "tag", tag, "attempt", attempt)
			return rx, nil
		}

		err = tx.Send(ctx, v)
		if err == nil {
			b.metrics.Delivered()
			return nil, nil
		}

		var se *lane.SendError[T, V]
		if !errors.As(err, &se) {
			return nil, err
		}

		// 旧通道已关闭：只移除观察到的这个发送端，避免误删并发创建的新通道
		b.lanes.RemoveFunc(tag, func(cur *lane.Sender[T, V]) bool {
			return cur == tx
		})
		b.metrics.Retry()
		if attempt > 0 {
			logger.Warn("通道投递多次重试", "tag", tag, "attempt", attempt)
		} else {
			logger.Debug("通道已关闭，重试投递", "tag", tag)
		}
	}
}

// Clear 驱逐所有通道
func (b *Bus[T, V]) Clear() {
	b.lanes.Clear()
}

// Len 当前活跃通道数
func (b *Bus[T, V]) Len() int {
	return b.lanes.Len()
}

// Contains tag 是否有活跃通道
func (b *Bus[T, V]) Contains(tag T) bool {
	return b.lanes.Contains(tag)
}

// Tags 当前活跃 tag 的快照
func (b *Bus[T, V]) Tags() []T {
	return b.lanes.Keys()
}

// Metrics 返回指标收集器，未启用时为 nil
func (b *Bus[T, V]) Metrics() *metrics.Collector {
	return b.metrics
}
