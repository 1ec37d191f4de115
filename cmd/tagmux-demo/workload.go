package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-tagmux"
)

// result 一次运行的统计
type result struct {
	sent       int64
	replies    int64
	mismatched int64
}

// workload 演示负载
type workload struct {
	sessions int
	messages int
	rate     float64

	sent atomic.Int64
}

// ============================================================================
// mux 模式
// ============================================================================

func (w *workload) runMux(ctx context.Context, m *tagmux.Mux[string, string], agg *tagmux.Aggregator[string, string]) (result, error) {
	var handlers errgroup.Group
	collected := w.collect(ctx, agg)

	err := w.produce(ctx, func(ctx context.Context, tag, v string) error {
		l, err := m.Send(ctx, tag, v)
		if err != nil || l == nil {
			return err
		}
		handlers.Go(func() error { return echo(ctx, l) })
		return nil
	})

	// 关闭后处理协程排空缓冲并退出，汇聚通道随之结束
	_ = m.Close()
	return w.finish(err, &handlers, collected)
}

// ============================================================================
// sink 模式
// ============================================================================

func (w *workload) runSink(ctx context.Context, s *tagmux.Sink[string, string], out *tagmux.Aggregator[string, string]) (result, error) {
	var handlers errgroup.Group
	collected := w.collect(ctx, out)

	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		for {
			st, err := s.Accept(ctx)
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				// Accept 超时只表示暂时没有新流
				continue
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.Warn("接收新流失败", "err", err)
				}
				return
			}
			handlers.Go(func() error { return echo(ctx, st.Lane()) })
		}
	}()

	err := w.produce(ctx, func(ctx context.Context, tag, v string) error {
		return s.Send(ctx, tag, v)
	})

	_ = s.Close()
	<-accepted
	return w.finish(err, &handlers, collected)
}

// ============================================================================
// 公共部分
// ============================================================================

// produce 为每个会话启动一个生产者，按限速发送消息
func (w *workload) produce(ctx context.Context, send func(ctx context.Context, tag, v string) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for range w.sessions {
		tag := uuid.NewString()
		limiter := newLimiter(w.rate)
		g.Go(func() error {
			for i := range w.messages {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				if err := send(ctx, tag, fmt.Sprintf("%s/msg-%d", tag[:8], i)); err != nil {
					return fmt.Errorf("session %s: %w", tag, err)
				}
				w.sent.Add(1)
			}
			logger.Debug("会话发送完成", "tag", tag)
			return nil
		})
	}
	return g.Wait()
}

// collect 在后台消费汇聚通道并统计回复
func (w *workload) collect(ctx context.Context, agg *tagmux.Aggregator[string, string]) <-chan result {
	done := make(chan result, 1)
	go func() {
		var res result
		for tag, reply := range agg.All(ctx) {
			res.replies++
			if !strings.HasPrefix(reply, strings.ToUpper(tag[:8])+"/MSG-") {
				res.mismatched++
			}
		}
		done <- res
	}()
	return done
}

func (w *workload) finish(err error, handlers *errgroup.Group, collected <-chan result) (result, error) {
	if herr := handlers.Wait(); err == nil {
		err = herr
	}
	res := <-collected
	res.sent = w.sent.Load()
	return res, err
}

// echo 把通道收到的每个值转为大写后回复
func echo(ctx context.Context, l *tagmux.Lane[string, string]) error {
	defer l.Close()

	tx, rx := l.Split()
	for v := range rx.All(ctx) {
		if err := tx.Send(ctx, strings.ToUpper(v)); err != nil {
			return err
		}
	}
	return nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
