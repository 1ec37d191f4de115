package registry

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
)

// DefaultShards 默认分片数
const DefaultShards = 32

// Config Map 配置
type Config[K comparable, V any] struct {
	// Shards 分片数，<= 0 使用 DefaultShards
	Shards int

	// OnEvict 条目被移除时调用（在分片锁之外），每个被移除的条目恰好调用一次
	OnEvict func(key K, value V)
}

// entry 表项
type entry[V any] struct {
	value V
	gen   uint64
}

// shard 分片
type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]entry[V]
}

// store 共享的底层存储，由 Map 与所有 Slot 共同引用
type store[K comparable, V any] struct {
	seed    maphash.Seed
	shards  []shard[K, V]
	gen     atomic.Uint64
	onEvict func(K, V)
}

// Map 并发安全的键值表
//
// Map 本身只是对共享存储的薄封装，由它派生的 Slot 可以比 Map 活得更久。
type Map[K comparable, V any] struct {
	s *store[K, V]
}

// New 使用默认配置创建 Map
func New[K comparable, V any]() *Map[K, V] {
	return NewWithConfig(Config[K, V]{})
}

// NewWithConfig 使用指定配置创建 Map
func NewWithConfig[K comparable, V any](cfg Config[K, V]) *Map[K, V] {
	n := cfg.Shards
	if n <= 0 {
		n = DefaultShards
	}

	s := &store[K, V]{
		seed:    maphash.MakeSeed(),
		shards:  make([]shard[K, V], n),
		onEvict: cfg.OnEvict,
	}
	for i := range s.shards {
		s.shards[i].m = make(map[K]entry[V])
	}
	return &Map[K, V]{s: s}
}

// ============================================================================
// 查询
// ============================================================================

// Get 获取 key 对应的值
func (m *Map[K, V]) Get(key K) (V, bool) {
	sh := m.s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.m[key]
	sh.mu.RUnlock()
	return e.value, ok
}

// Contains 判断 key 是否存在
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Modify 在分片锁内修改已存在的值
//
// key 不存在时返回 false 且不调用 fn。fn 内不得访问同一个 Map。
func (m *Map[K, V]) Modify(key K, fn func(value *V)) bool {
	sh := m.s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.m[key]
	if !ok {
		return false
	}
	fn(&e.value)
	sh.m[key] = e
	return true
}

// Len 返回条目数
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.s.shards {
		sh := &m.s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// IsEmpty 是否为空
func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// Keys 返回当前所有 key 的快照
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0)
	m.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range 逐分片遍历，fn 返回 false 时停止
//
// 遍历期间持有当前分片的读锁，fn 内不得修改同一个 Map。
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for i := range m.s.shards {
		sh := &m.s.shards[i]
		sh.mu.RLock()
		for k, e := range sh.m {
			if !fn(k, e.value) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// ============================================================================
// 插入
// ============================================================================

// GetOrInsert 获取已存在的值，不存在时原子地构造并插入
//
// ctor 接收一个为该 key 新铸造的 Slot，可以把它嵌入到将要构造的值中。
// 对同一个 key 的并发调用中只有一个会执行 ctor；返回的 bool 表示本次是否插入。
// ctor 在分片锁内执行，不得访问同一个 Map，也不得阻塞。
func (m *Map[K, V]) GetOrInsert(key K, ctor func(slot *Slot[K, V]) V) (V, bool) {
	v, inserted, _ := m.TryGetOrInsert(key, func(slot *Slot[K, V]) (V, error) {
		return ctor(slot), nil
	})
	return v, inserted
}

// TryGetOrInsert 与 GetOrInsert 相同，但 ctor 可以拒绝插入
//
// ctor 返回错误时不插入任何条目，该错误原样返回；传给 ctor 的 Slot
// 不对应任何条目，其 Release 是空操作。
func (m *Map[K, V]) TryGetOrInsert(key K, ctor func(slot *Slot[K, V]) (V, error)) (V, bool, error) {
	sh := m.s.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.m[key]
	sh.mu.RUnlock()
	if ok {
		return e.value, false, nil
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.m[key]; ok {
		return e.value, false, nil
	}

	slot := m.s.mint(key)
	v, err := ctor(slot)
	if err != nil {
		var zero V
		return zero, false, err
	}
	sh.m[key] = entry[V]{value: v, gen: slot.gen}
	return v, true, nil
}

// InsertOrReplace 无条件写入 value，返回代表新条目的 Slot
//
// 被替换的旧值会触发 OnEvict，旧值的 Slot 随之失效。
func (m *Map[K, V]) InsertOrReplace(key K, value V) *Slot[K, V] {
	sh := m.s.shardFor(key)

	sh.mu.Lock()
	old, replaced := sh.m[key]
	slot := m.s.mint(key)
	sh.m[key] = entry[V]{value: value, gen: slot.gen}
	sh.mu.Unlock()

	if replaced {
		m.s.evict(key, old.value)
	}
	return slot
}

// ============================================================================
// 移除
// ============================================================================

// Remove 移除 key，返回被移除的值
func (m *Map[K, V]) Remove(key K) (V, bool) {
	sh := m.s.shardFor(key)

	sh.mu.Lock()
	e, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mu.Unlock()

	if ok {
		m.s.evict(key, e.value)
	}
	return e.value, ok
}

// RemoveFunc 当 pred 对当前值返回 true 时移除 key
//
// 用于比较后删除：只清理调用方观察到的那个值，不影响已被替换的新值。
func (m *Map[K, V]) RemoveFunc(key K, pred func(value V) bool) bool {
	sh := m.s.shardFor(key)

	sh.mu.Lock()
	e, ok := sh.m[key]
	if ok && pred(e.value) {
		delete(sh.m, key)
	} else {
		ok = false
	}
	sh.mu.Unlock()

	if ok {
		m.s.evict(key, e.value)
	}
	return ok
}

// Clear 移除所有条目
func (m *Map[K, V]) Clear() {
	for i := range m.s.shards {
		sh := &m.s.shards[i]

		sh.mu.Lock()
		old := sh.m
		sh.m = make(map[K]entry[V])
		sh.mu.Unlock()

		for k, e := range old {
			m.s.evict(k, e.value)
		}
	}
}

// ============================================================================
// store 内部方法
// ============================================================================

func (s *store[K, V]) shardFor(key K) *shard[K, V] {
	h := maphash.Comparable(s.seed, key)
	return &s.shards[h%uint64(len(s.shards))]
}

func (s *store[K, V]) mint(key K) *Slot[K, V] {
	return &Slot[K, V]{
		s:   s,
		key: key,
		gen: s.gen.Add(1),
	}
}

func (s *store[K, V]) evict(key K, value V) {
	if s.onEvict != nil {
		s.onEvict(key, value)
	}
}
