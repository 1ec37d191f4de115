// Package registry 实现带所有权句柄的并发键值表
//
// Map 是 tag → 值的并发注册表，Slot 是与某个条目绑定的句柄：
// 持有 Slot 的对象销毁（Release）时，对应条目从表中移除。
//
// # 快速开始
//
//	m := registry.New[string, *Session]()
//
//	// 原子地获取或创建；ctor 拿到的 Slot 可以嵌入到值里
//	sess, created := m.GetOrInsert("a", func(slot *registry.Slot[string, *Session]) *Session {
//	    return newSession(slot)
//	})
//
//	// 会话结束时释放，条目随之移除
//	slot.Release()
//
// # 代数（generation）
//
// 每个条目携带单调递增的代数，Slot 记录它铸造时的代数。
// Release 是比较后删除：条目已被同 key 的新值替换时，旧 Slot 的 Release
// 不会移除新条目；IsValid 同样按代数判断。
//
// # 并发安全
//
//   - 按 key 哈希分片（hash/maphash），每个分片一把 sync.RWMutex
//   - 不同分片的 key 互不竞争
//   - GetOrInsert 对同一个 key 原子：每次"空 → 占用"只执行一次 ctor
//   - OnEvict 回调在分片锁之外执行，每个被移除的条目恰好一次
//
// # 架构定位
//
// Tier: Core Layer Level 1（无依赖）
//
// 被依赖：lane, bus, sink
package registry
