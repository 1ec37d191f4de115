package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "mux": {"lane_buffer": 32},
//	  "sink": {"accept_timeout": "10s"},
//	  "log": {"level": "debug"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置，字段名与 JSON 相同
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从文件加载并验证配置
//
// .yaml/.yml 按 YAML 解析，其余按 JSON 解析。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	default:
		cfg, err = FromJSON(data)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON 将配置序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 默认值
//   - "throughput": 大缓冲区，适合高吞吐
//   - "lowmem": 小缓冲区，尽早施加背压
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "default":
		cfg.Mux = DefaultMuxConfig()
		cfg.Sink = DefaultSinkConfig()
	case "throughput":
		cfg.Mux.AggregatorBuffer = 4096
		cfg.Mux.LaneBuffer = 256
		cfg.Mux.Shards = 128
		cfg.Sink.StreamBuffer = 256
		cfg.Sink.PendingBuffer = 1024
		cfg.Sink.OutBuffer = 4096
	case "lowmem":
		cfg.Mux.AggregatorBuffer = 16
		cfg.Mux.LaneBuffer = 1
		cfg.Mux.Shards = 4
		cfg.Sink.StreamBuffer = 1
		cfg.Sink.PendingBuffer = 4
		cfg.Sink.OutBuffer = 16
	case "":
		// 空预设，不做任何操作
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}
