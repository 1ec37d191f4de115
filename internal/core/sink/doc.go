// Package sink 实现单向的 tag 分流器
//
// Sink 是 Mux 的单向变体：入站值按 tag 路由到各自的 Stream，
// 新 Stream 不返回给发送方，而是进入等待队列，由接收方 Accept。
//
// # 快速开始
//
//	s, out := sink.New[string, []byte](16, 64, 256)
//	defer s.Close()
//
//	go func() {
//	    for {
//	        st, err := s.Accept(ctx)
//	        if err != nil {
//	            return // io.EOF: Sink 已关闭
//	        }
//	        go serve(st) // st.Recv 读入站值，st.Send 写回复到 out
//	    }
//	}()
//
//	s.Send(ctx, "session-1", payload)
//
// # 拒绝新流
//
// 新流在放入等待队列之后才对其他发送者可见，Send 返回 nil 的值
// 总能经 Accept 取到。
//
// CloseAccept 之后，需要新建流的 Send 返回 *lane.SendError，其中带回
// 未送达的 (tag, value)；已取走的流不受影响。CloseAccept 返回尚未取走的流，
// 这些流已关闭，但其中已缓冲的值仍可读出。
//
// # Fx 模块
//
//	app := fx.New(
//	    sink.Module[string, []byte](),
//	    fx.Invoke(func(in struct {
//	        fx.In
//	        Sink *sink.Sink[string, []byte]
//	        Out  *lane.Aggregator[string, []byte] `name:"sink_out"`
//	    }) { ... }),
//	)
//
// # 架构定位
//
// Tier: Core Layer Level 4
//
// 依赖关系：
//   - 依赖：bus, lane, channel, metrics, config
package sink
