// Package lane 实现按 tag 标记的通道
//
// 一条通道（lane）由 Sender 与 Receiver 组成：
//   - Sender 发送时附加 tag，可以 Clone 给多个生产者
//   - Receiver 独占注册表 Slot，Close 时把通道从注册表中驱逐
//   - Aggregator 是所有通道回复汇聚的共享通道
//
// # 生命周期
//
//	Absent → Active（New 创建，Slot 有效） → Absent（Receiver Close / EOF / 注册表移除）
//
// 注册表驱逐通道时，EvictHook 关闭底层通道：此后的 Send 返回 *SendError，
// 其中带回未送达的 (Tag, Value)；Receiver 排空已缓冲的值后收到 io.EOF。
//
// Receiver.IsClosed 以注册表成员关系为准：Slot 不再对应当前条目即视为关闭。
//
// # 架构定位
//
// Tier: Core Layer Level 2
//
// 依赖关系：
//   - 依赖：channel, registry
//   - 被依赖：bus, mux, sink
package lane
