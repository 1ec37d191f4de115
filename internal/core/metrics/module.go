package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-tagmux/config"
)

// ConfigFromUnified 从统一配置取指标配置
func ConfigFromUnified(cfg *config.Config) config.MetricsConfig {
	if cfg == nil {
		return config.DefaultMetricsConfig()
	}
	return cfg.Metrics
}

// FromConfig 按统一配置为某个组件创建 Collector
//
// 未启用指标或没有注册器时返回 nil（nil Collector 的方法都是空操作）。
func FromConfig(cfg *config.Config, reg prometheus.Registerer, subsystem string) (*Collector, error) {
	mc := ConfigFromUnified(cfg)
	if !mc.Enabled || reg == nil {
		return nil, nil
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	return New(mc.Namespace, subsystem, reg)
}
