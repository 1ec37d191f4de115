// Package tagmux 提供基于 tag 的消息多路复用
//
// 一条物理通道上承载多个逻辑会话时，tagmux 按 tag 把入站值分发到各自的
// 通道（lane），并把所有通道的回复汇聚到一个共享的出站通道。
//
// # 核心概念
//
//   - Mux: 多路复用器，入站按 tag 分发，出站汇聚到 Aggregator
//   - Lane: 单个 tag 的双向端点，由 Sender 和 Receiver 组成
//   - Bus: tag → 通道的分发总线，首次出现的 tag 自动创建通道
//   - Map: 带代际槽位的并发注册表，过期槽位无法影响新条目
//   - Sink: 单向分流器，新流通过 Accept 交给外部处理
//
// # 快速开始
//
//	import "github.com/dep2p/go-tagmux"
//
//	m, agg := tagmux.New[string, []byte](256, 16)
//	defer m.Close()
//
//	go func() {
//	    for tag, reply := range agg.All(ctx) {
//	        writeFrame(tag, reply)
//	    }
//	}()
//
//	for frame := range frames {
//	    l, err := m.Send(ctx, frame.Tag, frame.Payload)
//	    if err != nil {
//	        return err
//	    }
//	    if l != nil {
//	        go serve(ctx, l)
//	    }
//	}
//
// # API 层次结构
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│  入口层                                                          │
//	│  tagmux.New() / tagmux.NewSink() / tagmux.Module()              │
//	├─────────────────────────────────────────────────────────────────┤
//	│  组合层                                                          │
//	│  Mux ─── Bus ─── Aggregator          Sink ─── Stream            │
//	├─────────────────────────────────────────────────────────────────┤
//	│  基础层                                                          │
//	│  Lane (Sender / Receiver)            Map / Slot                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # 文件组织
//
//	tagmux/
//	├── doc.go                # 包文档
//	├── tagmux.go             # 类型别名、构造函数、版本信息
//	├── errors.go             # 错误定义
//	│
//	├── config/               # 统一配置（JSON / YAML）
//	├── internal/core/        # 核心实现
//	│   ├── channel/          # 多生产者单消费者通道
//	│   ├── registry/         # 分片注册表与代际槽位
//	│   ├── lane/             # Sender / Receiver / Lane / Aggregator
//	│   ├── bus/              # tag 分发总线
//	│   ├── mux/              # 多路复用器与 Fx 模块
//	│   ├── sink/             # 单向分流器与 Fx 模块
//	│   └── metrics/          # Prometheus 指标
//	├── pkg/lib/log/          # 结构化日志
//	└── cmd/tagmux-demo/      # 演示程序
//
// # 关闭语义
//
// 通道的接收端关闭后，对应 tag 从注册表中移除；之后的同一 tag 会创建新通道，
// 旧通道中已缓冲的值仍然可以被排空。Mux.Close 驱逐所有通道，
// 所有通道的发送端都释放后，汇聚通道返回 io.EOF。
package tagmux
