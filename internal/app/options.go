package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-tagmux/config"
)

// Mode 运行模式
type Mode string

const (
	// ModeMux 双向多路复用：Mux + 汇聚通道
	ModeMux Mode = "mux"
	// ModeSink 单向分流：Sink + Accept
	ModeSink Mode = "sink"
)

// ParseMode 解析运行模式字符串
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeMux, ModeSink:
		return m, nil
	default:
		return "", ErrUnknownMode
	}
}

// BootstrapOption Bootstrap 配置选项
type BootstrapOption func(*settings)

type settings struct {
	config       *config.Config
	registerer   prometheus.Registerer
	mode         Mode
	verbose      bool
	startTimeout time.Duration
	stopTimeout  time.Duration
}

func defaultSettings() settings {
	return settings{
		mode:         ModeMux,
		startTimeout: 30 * time.Second,
		stopTimeout:  30 * time.Second,
	}
}

// WithConfig 设置配置
func WithConfig(cfg *config.Config) BootstrapOption {
	return func(s *settings) {
		s.config = cfg
	}
}

// WithRegisterer 设置指标注册器，nil 表示不导出指标
func WithRegisterer(reg prometheus.Registerer) BootstrapOption {
	return func(s *settings) {
		s.registerer = reg
	}
}

// WithMode 设置运行模式
func WithMode(m Mode) BootstrapOption {
	return func(s *settings) {
		s.mode = m
	}
}

// WithVerbose 输出 Fx 事件日志
func WithVerbose(v bool) BootstrapOption {
	return func(s *settings) {
		s.verbose = v
	}
}

// WithTimeouts 设置启动与停止超时
func WithTimeouts(start, stop time.Duration) BootstrapOption {
	return func(s *settings) {
		if start > 0 {
			s.startTimeout = start
		}
		if stop > 0 {
			s.stopTimeout = stop
		}
	}
}
