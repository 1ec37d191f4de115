package lane

import (
	"context"
	"errors"
	"io"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-tagmux/internal/core/channel"
	"github.com/dep2p/go-tagmux/internal/core/registry"
)

type lanes = registry.Map[string, *Sender[string, int]]

func newLanes() *lanes {
	return registry.NewWithConfig(registry.Config[string, *Sender[string, int]]{
		OnEvict: EvictHook[string, int](),
	})
}

// openLane 在注册表中创建一条通道
func openLane(t *testing.T, m *lanes, tag string, buffer, first int) (*Sender[string, int], *Receiver[string, int]) {
	t.Helper()

	var rx *Receiver[string, int]
	tx, created := m.GetOrInsert(tag, func(slot *registry.Slot[string, *Sender[string, int]]) *Sender[string, int] {
		var tx *Sender[string, int]
		tx, rx = New(tag, buffer, slot, first)
		return tx
	})
	require.True(t, created)
	return tx, rx
}

// TestLane_FirstValueAndFIFO 测试新通道先收到创建值，之后按发送顺序接收
func TestLane_FirstValueAndFIFO(t *testing.T) {
	ctx := context.Background()
	m := newLanes()
	tx, rx := openLane(t, m, "a", 4, 1)
	defer rx.Close()

	assert.Equal(t, "a", tx.Tag())
	assert.Equal(t, "a", rx.Tag())
	assert.Equal(t, 1, rx.Len())

	require.NoError(t, tx.Send(ctx, 2))
	require.NoError(t, tx.Send(ctx, 3))

	for _, want := range []int{1, 2, 3} {
		got, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)
}

// TestReceiver_CloseEvicts 测试关闭接收端会驱逐注册表条目
func TestReceiver_CloseEvicts(t *testing.T) {
	ctx := context.Background()
	m := newLanes()
	tx, rx := openLane(t, m, "a", 2, 1)

	assert.False(t, rx.IsClosed())
	require.NoError(t, rx.Close())

	assert.True(t, rx.IsClosed())
	assert.True(t, tx.IsClosed())
	assert.False(t, m.Contains("a"))

	err := tx.Send(ctx, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClosed)

	var se *SendError[string, int]
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "a", se.Tag)
	assert.Equal(t, 7, se.Value)

	// 重复关闭是空操作
	assert.NoError(t, rx.Close())
}

// TestReceiver_DrainAfterClose 测试关闭后仍可排空已缓冲的值
func TestReceiver_DrainAfterClose(t *testing.T) {
	ctx := context.Background()
	m := newLanes()
	tx, rx := openLane(t, m, "a", 4, 1)
	require.NoError(t, tx.Send(ctx, 2))

	require.NoError(t, rx.Close())

	got := slices.Collect(rx.All(ctx))
	assert.Equal(t, []int{1, 2}, got)

	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

// TestReceiver_EvictedByRegistry 测试注册表移除条目后通道关闭
func TestReceiver_EvictedByRegistry(t *testing.T) {
	ctx := context.Background()
	m := newLanes()
	tx, rx := openLane(t, m, "a", 4, 1)

	_, ok := m.Remove("a")
	require.True(t, ok)

	assert.True(t, rx.IsClosed())
	assert.True(t, tx.IsClosed())

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

// TestReceiver_StaleCloseKeepsSuccessor 测试旧接收端关闭不会驱逐同 tag 的新通道
func TestReceiver_StaleCloseKeepsSuccessor(t *testing.T) {
	m := newLanes()
	_, oldRx := openLane(t, m, "a", 2, 1)

	// 注册表层面移除后重新创建
	m.Remove("a")
	newTx, newRx := openLane(t, m, "a", 2, 2)
	defer newRx.Close()

	require.NoError(t, oldRx.Close())

	assert.True(t, m.Contains("a"))
	assert.False(t, newRx.IsClosed())
	assert.False(t, newTx.IsClosed())
}

// TestReceiver_TagMismatchPanics 测试收到 tag 不一致的值时 panic
func TestReceiver_TagMismatchPanics(t *testing.T) {
	m := registry.New[string, *Sender[string, int]]()
	slot := m.InsertOrReplace("a", nil)

	ch := channel.New[Tagged[string, int]](1)
	rx := newReceiver(ch, slot)
	require.NoError(t, ch.TrySend(Tagged[string, int]{Tag: "b", Value: 1}))

	assert.Panics(t, func() {
		_, _ = rx.Recv(context.Background())
	})
}

// TestReceiver_RecvCancel 测试接收时 ctx 取消
func TestReceiver_RecvCancel(t *testing.T) {
	m := newLanes()
	_, rx := openLane(t, m, "a", 2, 1)
	defer rx.Close()

	_, err := rx.Recv(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, rx.IsClosed(), "取消接收不应关闭通道")
}

// TestReceiver_CleanupReleasesSlot 测试未关闭即被回收的接收端会释放条目
func TestReceiver_CleanupReleasesSlot(t *testing.T) {
	m := newLanes()

	func() {
		_, _ = openLane(t, m, "orphan", 2, 1)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return !m.Contains("orphan")
	}, 2*time.Second, 10*time.Millisecond)
}

// TestSender_TrySendFull 测试有界通道满时 TrySend 返回 ErrFull
func TestSender_TrySendFull(t *testing.T) {
	m := newLanes()
	tx, rx := openLane(t, m, "a", 1, 1)
	defer rx.Close()

	assert.ErrorIs(t, tx.TrySend(2), ErrFull)
	assert.Equal(t, 1, rx.Cap())
}

// TestSender_SendAll 测试批量发送
func TestSender_SendAll(t *testing.T) {
	ctx := context.Background()
	m := newLanes()
	tx, rx := openLane(t, m, "a", 0, 0)

	require.NoError(t, tx.SendAll(ctx, slices.Values([]int{1, 2, 3})))
	require.NoError(t, rx.Close())

	assert.Equal(t, []int{0, 1, 2, 3}, slices.Collect(rx.All(ctx)))
}

// TestNew_SlotTagMismatchPanics 测试 Slot 与 tag 不一致时 panic
func TestNew_SlotTagMismatchPanics(t *testing.T) {
	m := registry.New[string, *Sender[string, int]]()
	slot := m.InsertOrReplace("a", nil)

	assert.Panics(t, func() {
		New("b", 1, slot, 0)
	})
}

// TestNewLane 测试组合与拆分
func TestNewLane(t *testing.T) {
	ctx := context.Background()
	m := newLanes()
	agg := NewAggregator[string, int](4)

	_, rx := openLane(t, m, "a", 2, 1)
	tx, ok := agg.Bind("a")
	require.True(t, ok)

	l := NewLane(tx, rx)
	assert.Equal(t, "a", l.Tag())
	assert.Same(t, tx, l.Sender())
	assert.Same(t, rx, l.Receiver())

	s, r := l.Split()
	v, err := r.Recv(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Send(ctx, v*10))

	got, err := agg.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tagged[string, int]{Tag: "a", Value: 10}, got)

	require.NoError(t, l.Close())
	assert.True(t, rx.IsClosed())
	assert.True(t, tx.IsClosed())
	assert.False(t, m.Contains("a"))
}

// TestNewLane_TagMismatchPanics 测试 tag 不一致时快速失败
func TestNewLane_TagMismatchPanics(t *testing.T) {
	m := newLanes()
	agg := NewAggregator[string, int](1)

	_, rx := openLane(t, m, "a", 1, 1)
	defer rx.Close()
	tx, _ := agg.Bind("b")

	assert.Panics(t, func() {
		NewLane(tx, rx)
	})
}
