package mux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-tagmux/internal/core/lane"
)

// ============================================================================
// 并发测试
// ============================================================================

// TestConcurrent_FirstUseRace 测试两个生产者并发首次发送同一 tag
func TestConcurrent_FirstUseRace(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 100; round++ {
		m, _ := New[string, string](4, 2)

		var lanes [2]*lane.Lane[string, string]
		start := make(chan struct{})
		var g errgroup.Group
		for i, v := range []string{"x", "y"} {
			g.Go(func() error {
				<-start
				l, err := m.Send(ctx, "b", v)
				lanes[i] = l
				return err
			})
		}
		close(start)
		require.NoError(t, g.Wait())

		var created *lane.Lane[string, string]
		n := 0
		for _, l := range lanes {
			if l != nil {
				created = l
				n++
			}
		}
		require.Equal(t, 1, n, "round %d: 恰好一个调用返回新通道", round)

		rx := created.Receiver()
		var got []string
		for i := 0; i < 2; i++ {
			v, err := rx.Recv(ctx)
			require.NoError(t, err)
			got = append(got, v)
		}
		sort.Strings(got)
		assert.Equal(t, []string{"x", "y"}, got)

		require.NoError(t, created.Close())
		require.NoError(t, m.Close())
	}
}

// TestConcurrent_EchoHandlers 测试多通道并发回显
//
// 每条新通道启动一个处理协程，把收到的值加 1 写回汇聚通道；
// 汇聚通道收到的每个 tag 的回复序列必须与该 tag 的发送序列一一对应且有序。
func TestConcurrent_EchoHandlers(t *testing.T) {
	ctx := context.Background()
	m, agg := New[int, uint64](16, 4)

	const tags = 16
	const perTag = 200

	sent := make([][]uint64, tags)
	for i := range sent {
		rng := rand.New(rand.NewPCG(uint64(i), 42))
		for j := 0; j < perTag; j++ {
			sent[i] = append(sent[i], rng.Uint64()>>1)
		}
	}

	var handlers sync.WaitGroup
	var created atomic.Int32

	replies := make(map[int][]uint64)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for tag, v := range agg.All(ctx) {
			replies[tag] = append(replies[tag], v)
		}
	}()

	var producers errgroup.Group
	for i := 0; i < tags; i++ {
		producers.Go(func() error {
			for _, v := range sent[i] {
				l, err := m.Send(ctx, i, v)
				if err != nil {
					return err
				}
				if l == nil {
					continue
				}
				created.Add(1)
				handlers.Add(1)
				go func() {
					defer handlers.Done()
					defer l.Close()
					tx, rx := l.Split()
					for v := range rx.All(ctx) {
						if err := tx.Send(ctx, v+1); err != nil {
							t.Errorf("reply: %v", err)
							return
						}
					}
				}()
			}
			return nil
		})
	}
	require.NoError(t, producers.Wait())

	// 关闭后处理协程排空通道并退出，汇聚通道随之结束
	require.NoError(t, m.Close())
	handlers.Wait()
	<-collected

	assert.Equal(t, int32(tags), created.Load(), "无关闭时每个 tag 只创建一次")
	for i := 0; i < tags; i++ {
		want := make([]uint64, perTag)
		for j, v := range sent[i] {
			want[j] = v + 1
		}
		assert.Equal(t, want, replies[i], "tag %d", i)
	}
}

// TestConcurrent_SendDuringClose 测试 Close 与 Send 并发时不遗留活跃通道
func TestConcurrent_SendDuringClose(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		m, agg := New[string, int](0, 0)

		var mu sync.Mutex
		var returned []*lane.Lane[string, int]

		var g errgroup.Group
		for i := 0; i < 8; i++ {
			g.Go(func() error {
				for j := 0; j < 50; j++ {
					l, err := m.Send(ctx, fmt.Sprintf("t%d-%d", i, j), j)
					if errors.Is(err, ErrClosed) {
						return nil
					}
					if err != nil {
						return err
					}
					if l != nil {
						mu.Lock()
						returned = append(returned, l)
						mu.Unlock()
					}
				}
				return nil
			})
		}
		g.Go(func() error {
			return m.Close()
		})
		require.NoError(t, g.Wait())

		// Close 之前创建的通道被清空，之后创建的通道在返回前被关闭
		assert.Equal(t, 0, m.Len())
		for _, l := range returned {
			assert.True(t, l.Receiver().IsClosed(), "round %d: tag %s", round, l.Tag())
			require.NoError(t, l.Close())
		}

		_, err := agg.TryRecv()
		assert.ErrorIs(t, err, io.EOF)
	}
}
