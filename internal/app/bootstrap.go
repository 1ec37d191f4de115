// Package app 提供 tagmux 应用编排层
//
// app 包负责：
// - fx 模块组装
// - 依赖注入协调
// - 生命周期管理
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/core/lane"
	"github.com/dep2p/go-tagmux/internal/core/metrics"
	"github.com/dep2p/go-tagmux/internal/core/mux"
	"github.com/dep2p/go-tagmux/internal/core/sink"
	"github.com/dep2p/go-tagmux/pkg/lib/log"
)

var logger = log.Logger("app")

var (
	// ErrUnknownMode 未知运行模式
	ErrUnknownMode = errors.New("unknown mode")

	// ErrAlreadyBuilt Bootstrap 只能构建一次
	ErrAlreadyBuilt = errors.New("bootstrap already built")
)

// Bootstrap 应用引导程序
//
// Bootstrap 负责：
// - 解析配置
// - 组装 fx 模块
// - 管理应用生命周期
type Bootstrap[T comparable, V any] struct {
	settings settings
	fxApp    *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap[T comparable, V any](opts ...BootstrapOption) *Bootstrap[T, V] {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.config == nil {
		s.config = config.NewConfig()
	}
	return &Bootstrap[T, V]{settings: s}
}

// Build 构建并启动运行时
//
// 返回的 Runtime.Stop 触发各模块的 OnStop。
func (b *Bootstrap[T, V]) Build(ctx context.Context) (*Runtime[T, V], error) {
	if b.fxApp != nil {
		return nil, ErrAlreadyBuilt
	}

	rt := &Runtime[T, V]{Mode: b.settings.mode, stop: b.Stop}

	modules, err := b.setupModules(rt)
	if err != nil {
		return nil, fmt.Errorf("设置模块失败: %w", err)
	}

	b.fxApp = fx.New(
		fx.WithLogger(b.fxLogger),
		fx.Options(modules...),
	)
	if err := b.fxApp.Err(); err != nil {
		return nil, fmt.Errorf("组装应用失败: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, b.settings.startTimeout)
	defer cancel()
	if err := b.fxApp.Start(startCtx); err != nil {
		return nil, fmt.Errorf("启动应用失败: %w", err)
	}

	logger.Debug("应用已启动", "mode", b.settings.mode)
	return rt, nil
}

// Stop 停止应用
func (b *Bootstrap[T, V]) Stop(ctx context.Context) error {
	if b.fxApp == nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, b.settings.stopTimeout)
	defer cancel()

	return b.fxApp.Stop(stopCtx)
}

// setupModules 组装所有 fx 模块
func (b *Bootstrap[T, V]) setupModules(rt *Runtime[T, V]) ([]fx.Option, error) {
	component, err := b.setupComponentLayer(rt)
	if err != nil {
		return nil, err
	}
	return []fx.Option{
		b.setupConfigModule(),
		b.setupMonitoringLayer(),
		component,
	}, nil
}

// setupConfigModule 配置模块
func (b *Bootstrap[T, V]) setupConfigModule() fx.Option {
	return fx.Supply(b.settings.config)
}

// setupMonitoringLayer 监控层模块
//
// 未设置注册器时不提供 prometheus.Registerer，组件以 nil 收集器运行。
func (b *Bootstrap[T, V]) setupMonitoringLayer() fx.Option {
	if b.settings.registerer == nil {
		return fx.Options()
	}
	reg := b.settings.registerer
	return fx.Provide(func() prometheus.Registerer { return reg })
}

// setupComponentLayer 按运行模式装配组件并取出句柄
func (b *Bootstrap[T, V]) setupComponentLayer(rt *Runtime[T, V]) (fx.Option, error) {
	switch b.settings.mode {
	case ModeMux:
		return fx.Options(
			mux.Module[T, V](),
			fx.Invoke(func(in muxIn[T, V]) {
				rt.Mux = in.Mux
				rt.Aggregator = in.Aggregator
				rt.Metrics = in.Metrics
			}),
		), nil
	case ModeSink:
		return fx.Options(
			sink.Module[T, V](),
			fx.Invoke(func(in sinkIn[T, V]) {
				rt.Sink = in.Sink
				rt.Out = in.Out
				rt.Metrics = in.Metrics
			}),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, b.settings.mode)
	}
}

// fxLogger Fx 事件日志
func (b *Bootstrap[T, V]) fxLogger() fxevent.Logger {
	if !b.settings.verbose {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	return &fxevent.ZapLogger{Logger: l}
}

type muxIn[T comparable, V any] struct {
	fx.In

	Mux        *mux.Mux[T, V]
	Aggregator *lane.Aggregator[T, V]
	Metrics    *metrics.Collector `name:"mux_metrics"`
}

type sinkIn[T comparable, V any] struct {
	fx.In

	Sink    *sink.Sink[T, V]
	Out     *lane.Aggregator[T, V] `name:"sink_out"`
	Metrics *metrics.Collector     `name:"sink_metrics"`
}
