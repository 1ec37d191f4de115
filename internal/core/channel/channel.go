// Package channel 实现多生产者单消费者的点对点通道
package channel

import (
	"context"
	"errors"
	"io"
	"sync"
)

var (
	// ErrClosed 消费端已关闭
	ErrClosed = errors.New("channel closed")

	// ErrFull 有界通道已满（仅 TrySend）
	ErrFull = errors.New("channel full")

	// ErrEmpty 通道为空（仅 TryRecv）
	ErrEmpty = errors.New("channel empty")
)

// Channel 多生产者单消费者通道
//
// 与原生 chan 的区别：
//   - 消费端可以主动关闭，之后的发送返回 ErrClosed（原生 chan 无法感知接收方消失）
//   - 生产者引用计数归零后，消费端排空缓冲区即收到 io.EOF
//   - 缓冲区可以无界（capacity <= 0）
type Channel[E any] struct {
	mu sync.Mutex

	buf  []E
	head int // buf[head:] 为有效数据
	cap  int // <= 0 表示无界

	closed    bool // 消费端已关闭
	producers int  // 生产者引用计数

	waiting int           // 正在等待状态变化的 goroutine 数
	wake    chan struct{} // 状态变化时关闭并替换
}

// New 创建通道
//
// 创建者持有一个生产者引用，需要通过 Release 归还。
func New[E any](capacity int) *Channel[E] {
	c := &Channel[E]{
		cap:       capacity,
		producers: 1,
		wake:      make(chan struct{}),
	}
	if capacity > 0 {
		c.buf = make([]E, 0, capacity)
	}
	return c
}

// ============================================================================
// 生产端
// ============================================================================

// Send 发送一个值，缓冲区满时挂起
func (c *Channel[E]) Send(ctx context.Context, e E) error {
	c.mu.Lock()
	for {
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if c.hasRoomLocked() {
			c.pushLocked(e)
			c.broadcastLocked()
			c.mu.Unlock()
			return nil
		}
		if err := c.waitLocked(ctx); err != nil {
			return err
		}
	}
}

// TrySend 非阻塞发送
func (c *Channel[E]) TrySend(e E) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.hasRoomLocked() {
		return ErrFull
	}
	c.pushLocked(e)
	c.broadcastLocked()
	return nil
}

// WaitRoom 等待缓冲区出现空位
//
// 返回 nil 时调用时刻有空位，但并发的发送可能先占用它。消费端关闭或
// 生产者引用已归零时返回 ErrClosed。
func (c *Channel[E]) WaitRoom(ctx context.Context) error {
	c.mu.Lock()
	for {
		if c.closed || c.producers == 0 {
			c.mu.Unlock()
			return ErrClosed
		}
		if c.hasRoomLocked() {
			c.mu.Unlock()
			return nil
		}
		if err := c.waitLocked(ctx); err != nil {
			return err
		}
	}
}

// Acquire 增加一个生产者引用
//
// 引用计数已归零（通道对生产者而言已结束）时返回 false。
func (c *Channel[E]) Acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.producers == 0 {
		return false
	}
	c.producers++
	return true
}

// Release 归还一个生产者引用
func (c *Channel[E]) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.producers == 0 {
		return
	}
	c.producers--
	if c.producers == 0 {
		c.broadcastLocked()
	}
}

// ============================================================================
// 消费端
// ============================================================================

// Recv 接收一个值
//
// 缓冲区排空且（消费端已关闭或生产者全部释放）时返回 io.EOF。
func (c *Channel[E]) Recv(ctx context.Context) (E, error) {
	c.mu.Lock()
	for {
		if c.lenLocked() > 0 {
			e := c.popLocked()
			c.mu.Unlock()
			return e, nil
		}
		if c.closed || c.producers == 0 {
			c.mu.Unlock()
			var zero E
			return zero, io.EOF
		}
		if err := c.waitLocked(ctx); err != nil {
			var zero E
			return zero, err
		}
	}
}

// TryRecv 非阻塞接收
func (c *Channel[E]) TryRecv() (E, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero E
	if c.lenLocked() > 0 {
		return c.popLocked(), nil
	}
	if c.closed || c.producers == 0 {
		return zero, io.EOF
	}
	return zero, ErrEmpty
}

// Close 关闭消费端
//
// 之后的发送返回 ErrClosed；已缓冲的值仍可接收。可重复调用。
func (c *Channel[E]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.broadcastLocked()
}

// ============================================================================
// 状态查询
// ============================================================================

// IsClosed 消费端是否已关闭
func (c *Channel[E]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len 当前缓冲的值数量
func (c *Channel[E]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lenLocked()
}

// Cap 缓冲区容量，0 表示无界
func (c *Channel[E]) Cap() int {
	if c.cap <= 0 {
		return 0
	}
	return c.cap
}

// Producers 当前生产者引用数
func (c *Channel[E]) Producers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.producers
}

// ============================================================================
// 内部方法（调用方持有 c.mu）
// ============================================================================

func (c *Channel[E]) lenLocked() int {
	return len(c.buf) - c.head
}

func (c *Channel[E]) hasRoomLocked() bool {
	return c.cap <= 0 || c.lenLocked() < c.cap
}

func (c *Channel[E]) pushLocked(e E) {
	// 底层数组写满且前部有空洞时整体前移
	if c.head > 0 && len(c.buf) == cap(c.buf) {
		n := copy(c.buf, c.buf[c.head:])
		clear(c.buf[n:])
		c.buf = c.buf[:n]
		c.head = 0
	}
	c.buf = append(c.buf, e)
}

func (c *Channel[E]) popLocked() E {
	var zero E
	e := c.buf[c.head]
	c.buf[c.head] = zero
	c.head++
	if c.head == len(c.buf) {
		c.buf = c.buf[:0]
		c.head = 0
	}
	c.broadcastLocked()
	return e
}

func (c *Channel[E]) broadcastLocked() {
	if c.waiting == 0 {
		return
	}
	close(c.wake)
	c.wake = make(chan struct{})
}

// waitLocked 释放锁等待一次状态变化，返回时重新持有锁；
// ctx 取消时返回错误且不持有锁。
func (c *Channel[E]) waitLocked(ctx context.Context) error {
	c.waiting++
	wake := c.wake
	c.mu.Unlock()

	select {
	case <-wake:
		c.mu.Lock()
		c.waiting--
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		c.waiting--
		c.mu.Unlock()
		return ctx.Err()
	}
}
