package lane

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-tagmux/internal/core/channel"
)

var (
	// ErrClosed 通道接收端已关闭
	ErrClosed = errors.New("lane closed")

	// ErrTagMismatch 发送端与接收端的 tag 不一致
	ErrTagMismatch = errors.New("lane tag mismatch")

	// ErrFull 有界缓冲区已满（仅 TrySend）
	ErrFull = channel.ErrFull

	// ErrEmpty 当前无可接收的值（仅 TryRecv）
	ErrEmpty = channel.ErrEmpty
)

// Tagged 带 tag 的值，是所有通道中传输的元素
type Tagged[T comparable, V any] struct {
	Tag   T
	Value V
}

// SendError 发送失败，携带未送达的 (Tag, Value)
//
// 接收端已关闭时返回，调用方可以取回值重新投递。
// errors.Is(err, ErrClosed) 成立。
type SendError[T comparable, V any] struct {
	Tag   T
	Value V
}

// Error 实现 error 接口
func (e *SendError[T, V]) Error() string {
	return fmt.Sprintf("send to lane %v: %v", e.Tag, ErrClosed)
}

// Unwrap 返回 ErrClosed
func (e *SendError[T, V]) Unwrap() error {
	return ErrClosed
}
