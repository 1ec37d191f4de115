package tagmux

import (
	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/internal/core/mux"
	"github.com/dep2p/go-tagmux/internal/core/sink"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 通道错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrClosed 通道对端已关闭
	ErrClosed = lane.ErrClosed

	// ErrFull 通道缓冲区已满（仅 TrySend）
	ErrFull = lane.ErrFull

	// ErrEmpty 通道暂无数据（仅 TryRecv）
	ErrEmpty = lane.ErrEmpty

	// ErrTagMismatch 值的 tag 与通道的 tag 不一致
	ErrTagMismatch = lane.ErrTagMismatch

	// ────────────────────────────────────────────────────────────────────────
	// 组件生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrMuxClosed 多路复用器已关闭
	ErrMuxClosed = mux.ErrClosed

	// ErrSinkClosed 分流器已关闭
	ErrSinkClosed = sink.ErrClosed
)
