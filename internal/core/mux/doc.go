// Package mux 实现带共享汇聚通道的 tag 多路复用器
//
// 一条物理通道上承载许多逻辑上独立的会话时，Mux 负责：
//   - 入站：按 tag 把值分发到各自的通道（lane），首次出现的 tag 自动创建通道
//   - 出站：所有通道的回复以 (tag, value) 的形式汇聚到同一个 Aggregator
//
// # 快速开始
//
//	m, agg := mux.New[string, []byte](256, 16)
//	defer m.Close()
//
//	// 出站：单点消费所有回复
//	go func() {
//	    for tag, reply := range agg.All(ctx) {
//	        writeFrame(tag, reply)
//	    }
//	}()
//
//	// 入站：新 tag 返回新通道，调用方为它启动处理协程
//	l, err := m.Send(ctx, tag, payload)
//	if err != nil {
//	    return err
//	}
//	if l != nil {
//	    go func() {
//	        defer l.Close()
//	        tx, rx := l.Split()
//	        for v := range rx.All(ctx) {
//	            tx.Send(ctx, handle(v))
//	        }
//	    }()
//	}
//
// # 背压
//
// 每条通道的缓冲区有界时，处理协程不消费会让该 tag 的 Send 挂起；
// 这是流量控制而不是错误。其他 tag 不受影响。
//
// # 关闭语义
//
//   - 通道接收端 Close：该 tag 从注册表移除，下一次 Send 会创建新通道
//   - Mux.Close：驱逐所有通道，处理协程排空已缓冲的值后收到 io.EOF；
//     所有通道发送端关闭后汇聚通道结束
//   - 对同一 tag 而言，不会丢失也不会重复投递任何被 Send 接受的值
//
// # Fx 模块
//
//	app := fx.New(
//	    mux.Module[string, []byte](),
//	    fx.Invoke(func(m *mux.Mux[string, []byte], agg *lane.Aggregator[string, []byte]) {
//	        // ...
//	    }),
//	)
//
// 可选依赖 *config.Config 与 prometheus.Registerer；停止时关闭 Mux。
//
// # 架构定位
//
// Tier: Core Layer Level 4
//
// 依赖关系：
//   - 依赖：bus, lane, metrics, config
//   - 被依赖：tagmux（根包）, cmd/tagmux-demo
//
// # 并发安全
//
// Mux 的所有方法都可以被任意多个 goroutine 并发调用：
//   - 注册表按 tag 分片加锁，不同 tag 互不竞争
//   - 同一 tag 的并发首次 Send 只有一个会得到新通道
//   - 汇聚通道的发送端可以在处理协程之间自由共享
package mux
