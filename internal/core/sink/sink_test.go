package sink

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/core/lane"
)

// TestSink_SendAccept 测试新 tag 产生等待接收的流
func TestSink_SendAccept(t *testing.T) {
	ctx := context.Background()
	s, _ := New[string, int](4, 4, 4)
	defer s.Close()

	require.NoError(t, s.Send(ctx, "a", 1))
	require.NoError(t, s.Send(ctx, "a", 2))
	require.NoError(t, s.Send(ctx, "b", 10))
	assert.Equal(t, 2, s.Pending())
	assert.Equal(t, 2, s.Len())

	st, err := s.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", st.Tag())

	for _, want := range []int{1, 2} {
		got, err := st.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	st2, err := s.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", st2.Tag())
	v, err := st2.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 0, s.Pending())
}

// TestSink_StreamReply 测试流回复写入汇聚通道
func TestSink_StreamReply(t *testing.T) {
	ctx := context.Background()
	s, out := New[string, string](2, 2, 2)

	require.NoError(t, s.Send(ctx, "q", "ping"))
	st, err := s.Accept(ctx)
	require.NoError(t, err)

	v, err := st.Recv(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Send(ctx, v+"/pong"))

	r, err := out.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, lane.Tagged[string, string]{Tag: "q", Value: "ping/pong"}, r)

	require.NoError(t, st.Close())
	require.NoError(t, s.Close())

	_, err = out.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

// TestSink_StreamCloseEvicts 测试关闭流后同 tag 产生新流
func TestSink_StreamCloseEvicts(t *testing.T) {
	ctx := context.Background()
	s, _ := New[string, int](2, 2, 2)
	defer s.Close()

	require.NoError(t, s.Send(ctx, "a", 1))
	st, err := s.Accept(ctx)
	require.NoError(t, err)

	require.NoError(t, st.Close())
	assert.True(t, st.IsClosed())
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Send(ctx, "a", 2))
	st2, err := s.Accept(ctx)
	require.NoError(t, err)
	assert.False(t, st2.IsClosed())
	v, err := st2.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.NotSame(t, st.Lane(), st2.Lane())
}

// TestSink_CloseAccept 测试接收端关闭后新 tag 返回 SendError
func TestSink_CloseAccept(t *testing.T) {
	ctx := context.Background()
	s, _ := New[string, int](2, 2, 2)
	defer s.Close()

	require.NoError(t, s.Send(ctx, "queued", 1))
	require.NoError(t, s.Send(ctx, "queued", 2))
	left := s.CloseAccept()

	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, s.Len(), "未取走的流被关闭")

	// 未取走的流交还给调用方，已缓冲的值不丢失
	require.Len(t, left, 1)
	assert.Equal(t, "queued", left[0].Tag())
	assert.True(t, left[0].IsClosed())
	for _, want := range []int{1, 2} {
		v, err := left[0].Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err := left[0].Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)

	err = s.Send(ctx, "a", 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, lane.ErrClosed)

	var se *lane.SendError[string, int]
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "a", se.Tag)
	assert.Equal(t, 7, se.Value)
	assert.False(t, s.bus.Contains("a"))
	assert.Empty(t, s.CloseAccept())
}

// TestSink_Close 测试关闭后 Accept 结束、Send 失败
func TestSink_Close(t *testing.T) {
	ctx := context.Background()
	s, _ := New[string, int](2, 2, 2)

	require.NoError(t, s.Send(ctx, "a", 1))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.IsClosed())

	// 已排队的流仍可取走，其值可以排空
	st, err := s.Accept(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsClosed())
	v, err := st.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Accept(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.ErrorIs(t, s.Send(ctx, "b", 1), ErrClosed)
}

// TestSink_AcceptTimeout 测试配置的 Accept 超时
func TestSink_AcceptTimeout(t *testing.T) {
	cfg := config.DefaultSinkConfig()
	cfg.AcceptTimeout = config.Duration(20 * time.Millisecond)

	s, _ := NewFromConfig[string, int](cfg)
	defer s.Close()

	_, err := s.Accept(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestSink_PendingBackpressure 测试等待队列满时 Send 挂起
func TestSink_PendingBackpressure(t *testing.T) {
	s, _ := New[string, int](1, 1, 1)
	defer s.Close()

	require.NoError(t, s.Send(context.Background(), "a", 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Send(ctx, "b", 1), context.DeadlineExceeded)
	assert.False(t, s.bus.Contains("b"), "未入队的流不会发布")
}

// TestSink_CanceledCreatorKeepsJoinedValues 测试创建者取消后已确认的值仍可取走
func TestSink_CanceledCreatorKeepsJoinedValues(t *testing.T) {
	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	s, _ := New[string, int](4, 1, 4)
	defer s.Close()

	require.NoError(t, s.Send(ctx, "a", 0))

	cctx, cancel := context.WithCancel(ctx)
	creator := make(chan error, 1)
	go func() { creator <- s.Send(cctx, "b", 1) }()

	joiner := make(chan error, 1)
	go func() { joiner <- s.Send(ctx, "b", 2) }()

	// 等待队列已满：b 的流尚未入队，任何发送者都不能加入它
	select {
	case err := <-joiner:
		t.Fatalf("b 的流入队前 Send 返回: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, s.bus.Contains("b"))

	cancel()
	select {
	case err := <-creator:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("取消后创建者未返回")
	}

	st, err := s.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", st.Tag())

	select {
	case err := <-joiner:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("等待队列腾出空位后 Send 未返回")
	}

	st, err = s.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", st.Tag())
	v, err := st.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = st.TryRecv()
	assert.ErrorIs(t, err, lane.ErrEmpty, "被取消的值没有送达")
}

// TestSink_CloseAcceptKeepsAcknowledged 测试 CloseAccept 与发送并发时确认过的值都能取到
func TestSink_CloseAcceptKeepsAcknowledged(t *testing.T) {
	ctx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	const tags = 32
	const perTag = 200

	s, _ := New[int, int](0, 0, 0)
	defer s.Close()

	accepted := make(chan []*Stream[int, int], 1)
	go func() {
		var got []*Stream[int, int]
		for {
			st, err := s.Accept(ctx)
			if err != nil {
				accepted <- got
				return
			}
			got = append(got, st)
		}
	}()

	acked := make([]int, tags)
	var producers errgroup.Group
	for i := range tags {
		producers.Go(func() error {
			for j := range perTag {
				err := s.Send(ctx, i, j)
				if err == nil {
					acked[i]++
					continue
				}
				var se *lane.SendError[int, int]
				if !errors.As(err, &se) {
					return err
				}
			}
			return nil
		})
	}

	time.Sleep(2 * time.Millisecond)
	left := s.CloseAccept()
	require.NoError(t, producers.Wait())

	received := make([]int, tags)
	drain := func(st *Stream[int, int]) {
		for {
			if _, err := st.TryRecv(); err != nil {
				return
			}
			received[st.Tag()]++
		}
	}
	for _, st := range <-accepted {
		drain(st)
	}
	for _, st := range left {
		drain(st)
	}

	assert.Equal(t, acked, received)
}

// TestSink_ConcurrentAccept 测试并发发送与接收
func TestSink_ConcurrentAccept(t *testing.T) {
	ctx := context.Background()
	s, _ := New[int, int](0, 0, 0)

	const tags = 20
	const perTag = 50

	var producers errgroup.Group
	for i := 0; i < tags; i++ {
		producers.Go(func() error {
			for j := 0; j < perTag; j++ {
				if err := s.Send(ctx, i, j); err != nil {
					return err
				}
			}
			return nil
		})
	}

	results := make(chan [2]int, tags)
	var consumers errgroup.Group
	consumers.Go(func() error {
		var g errgroup.Group
		for {
			st, err := s.Accept(ctx)
			if errors.Is(err, io.EOF) {
				return g.Wait()
			}
			if err != nil {
				return err
			}
			g.Go(func() error {
				n := 0
				for range st.All(ctx) {
					n++
				}
				results <- [2]int{st.Tag(), n}
				return nil
			})
		}
	})

	require.NoError(t, producers.Wait())
	require.NoError(t, s.Close())
	require.NoError(t, consumers.Wait())
	close(results)

	total := map[int]int{}
	for r := range results {
		total[r[0]] += r[1]
	}
	for i := 0; i < tags; i++ {
		assert.Equal(t, perTag, total[i], "tag %d", i)
	}
}
