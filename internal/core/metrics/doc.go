// Package metrics 提供通道生命周期与投递指标
//
// Collector 基于 Prometheus client_golang 记录：
//   - lanes_created_total / lanes_evicted_total：通道创建与驱逐
//   - lanes_active：当前活跃通道数
//   - push_retries_total：因通道已关闭而重试的投递
//   - delivered_total：成功投递的值
//
// 另外用 60 秒滑动窗口的 RateMeter 计算最近的投递速率，供 Snapshot 使用。
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	c, err := metrics.New("tagmux", "mux", reg)
//	if err != nil {
//	    return err
//	}
//
//	b := bus.New[string, []byte](16, bus.WithMetrics(c))
//
//	stats := c.Snapshot()
//	fmt.Printf("active=%d rate=%.2f/s\n", stats.ActiveLanes, stats.DeliverRate)
//
// # nil 收集器
//
// 未启用指标时组件持有 nil *Collector，所有方法都是空操作，调用方无需判空。
//
// # 架构定位
//
// Tier: Core Layer Level 1
//
// 依赖关系：
//   - 依赖：config, prometheus/client_golang
//   - 被依赖：bus, mux, sink
package metrics
