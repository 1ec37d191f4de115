package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，额外处理 nil。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 负的缓冲区大小 -> 使用默认值
//   - 负的超时 -> 使用默认值
//   - 空的日志级别/格式 -> 使用默认值
//   - 启用指标但命名空间为空 -> 使用默认命名空间
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	mux := DefaultMuxConfig()
	if c.Mux.AggregatorBuffer < 0 {
		c.Mux.AggregatorBuffer = mux.AggregatorBuffer
	}
	if c.Mux.LaneBuffer < 0 {
		c.Mux.LaneBuffer = mux.LaneBuffer
	}
	if c.Mux.Shards < 0 {
		c.Mux.Shards = mux.Shards
	}

	sink := DefaultSinkConfig()
	if c.Sink.StreamBuffer < 0 {
		c.Sink.StreamBuffer = sink.StreamBuffer
	}
	if c.Sink.PendingBuffer < 0 {
		c.Sink.PendingBuffer = sink.PendingBuffer
	}
	if c.Sink.OutBuffer < 0 {
		c.Sink.OutBuffer = sink.OutBuffer
	}
	if c.Sink.AcceptTimeout < 0 {
		c.Sink.AcceptTimeout = sink.AcceptTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogConfig().Level
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogConfig().Format
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsConfig().Namespace
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}
