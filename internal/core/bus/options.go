package bus

import (
	"github.com/dep2p/go-tagmux/internal/core/metrics"
)

// Option Bus 配置选项
type Option func(*settings)

type settings struct {
	shards  int
	metrics *metrics.Collector
}

// WithShards 设置注册表分片数
func WithShards(n int) Option {
	return func(s *settings) {
		s.shards = n
	}
}

// WithMetrics 设置指标收集器，nil 表示不收集
func WithMetrics(c *metrics.Collector) Option {
	return func(s *settings) {
		s.metrics = c
	}
}
