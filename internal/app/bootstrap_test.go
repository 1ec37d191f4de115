// Package app 测试文件
package app

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-tagmux/config"
)

// TestBootstrap_Mux 验证 mux 模式装配
func TestBootstrap_Mux(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	b := NewBootstrap[string, int](WithRegisterer(reg))
	rt, err := b.Build(ctx)
	require.NoError(t, err)

	require.NotNil(t, rt.Mux)
	require.NotNil(t, rt.Aggregator)
	require.NotNil(t, rt.Metrics, "提供注册器时应启用指标")
	assert.Nil(t, rt.Sink)

	l, err := rt.Mux.Send(ctx, "a", 1)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, int64(1), rt.Stats().LanesCreated)

	require.NoError(t, l.Close())
	require.NoError(t, rt.Stop(ctx))
	assert.True(t, rt.Mux.IsClosed())

	_, err = rt.Aggregator.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

// TestBootstrap_Sink 验证 sink 模式装配
func TestBootstrap_Sink(t *testing.T) {
	ctx := context.Background()

	b := NewBootstrap[string, int](WithMode(ModeSink))
	rt, err := b.Build(ctx)
	require.NoError(t, err)
	defer rt.Stop(ctx)

	require.NotNil(t, rt.Sink)
	require.NotNil(t, rt.Out)
	assert.Nil(t, rt.Mux)
	assert.Nil(t, rt.Metrics, "未提供注册器时不收集指标")
	assert.Zero(t, rt.Stats().Delivered)

	require.NoError(t, rt.Sink.Send(ctx, "a", 1))
	st, err := rt.Sink.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", st.Tag())
}

// TestBootstrap_Errors 验证错误路径
func TestBootstrap_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownMode", func(t *testing.T) {
		_, err := NewBootstrap[string, int](WithMode("bogus")).Build(ctx)
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Mux.LaneBuffer = -1
		_, err := NewBootstrap[string, int](WithConfig(cfg)).Build(ctx)
		assert.Error(t, err)
	})

	t.Run("BuildTwice", func(t *testing.T) {
		b := NewBootstrap[string, int]()
		rt, err := b.Build(ctx)
		require.NoError(t, err)
		defer rt.Stop(ctx)

		_, err = b.Build(ctx)
		assert.ErrorIs(t, err, ErrAlreadyBuilt)
	})
}

// TestParseMode 验证运行模式解析
func TestParseMode(t *testing.T) {
	m, err := ParseMode("sink")
	require.NoError(t, err)
	assert.Equal(t, ModeSink, m)

	_, err = ParseMode("duplex")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
