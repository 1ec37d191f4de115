package config

import (
	"errors"
	"time"
)

// SinkConfig 单向分流器配置
type SinkConfig struct {
	// StreamBuffer 每个流的缓冲区大小，0 表示无界
	StreamBuffer int `json:"stream_buffer" yaml:"stream_buffer"`

	// PendingBuffer 等待 Accept 的新流队列大小，0 表示无界
	PendingBuffer int `json:"pending_buffer" yaml:"pending_buffer"`

	// OutBuffer 流回复汇聚通道的缓冲区大小，0 表示无界
	OutBuffer int `json:"out_buffer" yaml:"out_buffer"`

	// AcceptTimeout 调用方等待新流的超时，0 表示不限
	AcceptTimeout Duration `json:"accept_timeout" yaml:"accept_timeout"`
}

// DefaultSinkConfig 返回默认分流器配置
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		StreamBuffer:  16,
		PendingBuffer: 64,
		OutBuffer:     256,
		AcceptTimeout: Duration(30 * time.Second),
	}
}

// Validate 验证分流器配置
func (c SinkConfig) Validate() error {
	if c.StreamBuffer < 0 {
		return errors.New("stream buffer must not be negative")
	}
	if c.PendingBuffer < 0 {
		return errors.New("pending buffer must not be negative")
	}
	if c.OutBuffer < 0 {
		return errors.New("out buffer must not be negative")
	}
	if c.AcceptTimeout < 0 {
		return errors.New("accept timeout must not be negative")
	}
	return nil
}
