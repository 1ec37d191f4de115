package config

import (
	"errors"
)

// MuxConfig 多路复用器配置
//
// 缓冲区大小为 0 表示无界，负数无效。
type MuxConfig struct {
	// AggregatorBuffer 汇聚通道缓冲区大小
	AggregatorBuffer int `json:"aggregator_buffer" yaml:"aggregator_buffer"`

	// LaneBuffer 每条通道的缓冲区大小
	LaneBuffer int `json:"lane_buffer" yaml:"lane_buffer"`

	// Shards 注册表分片数，0 使用默认值
	Shards int `json:"shards" yaml:"shards"`
}

// DefaultMuxConfig 返回默认多路复用器配置
func DefaultMuxConfig() MuxConfig {
	return MuxConfig{
		AggregatorBuffer: 256, // 汇聚通道：256 条回复
		LaneBuffer:       16,  // 每条通道：16 条消息
		Shards:           32,
	}
}

// Validate 验证多路复用器配置
func (c MuxConfig) Validate() error {
	if c.AggregatorBuffer < 0 {
		return errors.New("aggregator buffer must not be negative")
	}
	if c.LaneBuffer < 0 {
		return errors.New("lane buffer must not be negative")
	}
	if c.Shards < 0 {
		return errors.New("shards must not be negative")
	}
	return nil
}

// WithLaneBuffer 设置通道缓冲区大小
func (c MuxConfig) WithLaneBuffer(n int) MuxConfig {
	c.LaneBuffer = n
	return c
}

// WithAggregatorBuffer 设置汇聚通道缓冲区大小
func (c MuxConfig) WithAggregatorBuffer(n int) MuxConfig {
	c.AggregatorBuffer = n
	return c
}
