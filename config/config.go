// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON / YAML 加载，保存为 JSON
//   - 支持预设配置（default/throughput/lowmem）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Mux.LaneBuffer = 64
//
//	// 应用预设
//	config.ApplyPreset(cfg, "throughput")
//
//	// 从文件加载（按扩展名选择 JSON 或 YAML）
//	cfg, err := config.LoadFile("tagmux.yaml")
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Config 是 tagmux 的完整配置结构
//
// 配置按照功能模块组织：
//   - Mux: 双向多路复用器（通道与汇聚通道缓冲区）
//   - Sink: 单向分流器
//   - Log: 日志
//   - Metrics: 指标
type Config struct {
	// Mux 多路复用器配置
	Mux MuxConfig `json:"mux" yaml:"mux"`

	// Sink 单向分流器配置
	Sink SinkConfig `json:"sink" yaml:"sink"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Mux:     DefaultMuxConfig(),
		Sink:    DefaultSinkConfig(),
		Log:     DefaultLogConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回合并后的全部错误而不是第一个。
func (c *Config) Validate() error {
	return multierr.Combine(
		wrap("mux", c.Mux.Validate()),
		wrap("sink", c.Sink.Validate()),
		wrap("log", c.Log.Validate()),
		wrap("metrics", c.Metrics.Validate()),
	)
}

func wrap(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", section, err)
}
