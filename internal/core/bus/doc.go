// Package bus 实现 tag → 通道的分发总线
//
// Push 要么投递到 tag 已有的通道，要么原子地创建新通道并返回其接收端。
// 遇到已关闭但尚未移除的旧通道时，比较后移除该条目并用同一个值重试，
// 值不会丢失。
//
// # 架构定位
//
// Tier: Core Layer Level 3
//
// 依赖关系：
//   - 依赖：lane, registry, metrics
//   - 被依赖：mux, sink
package bus
