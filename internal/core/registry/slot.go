package registry

import (
	"sync/atomic"
)

// Slot 与 Map 中某个条目绑定的句柄
//
// Slot 在条目创建的同时铸造，记录条目的代数（generation）。
// Release 只会移除代数仍然匹配的条目：如果该 key 已被新条目替换，
// 旧 Slot 的 Release 是空操作，不会误删后继者。
type Slot[K comparable, V any] struct {
	s        *store[K, V]
	key      K
	gen      uint64
	released atomic.Bool
}

// Key 返回 Slot 对应的 key
func (sl *Slot[K, V]) Key() K {
	return sl.key
}

// Generation 返回 Slot 铸造时的代数
func (sl *Slot[K, V]) Generation() uint64 {
	return sl.gen
}

// IsValid 判断 Slot 代表的条目是否仍在 Map 中
//
// 条目被移除或被同 key 的新条目替换后返回 false。
func (sl *Slot[K, V]) IsValid() bool {
	if sl.released.Load() {
		return false
	}

	sh := sl.s.shardFor(sl.key)
	sh.mu.RLock()
	e, ok := sh.m[sl.key]
	sh.mu.RUnlock()
	return ok && e.gen == sl.gen
}

// Release 移除 Slot 代表的条目
//
// 比较代数后删除；可重复调用。返回本次调用是否真的移除了条目。
func (sl *Slot[K, V]) Release() bool {
	if !sl.released.CompareAndSwap(false, true) {
		return false
	}

	sh := sl.s.shardFor(sl.key)
	sh.mu.Lock()
	e, ok := sh.m[sl.key]
	if ok && e.gen == sl.gen {
		delete(sh.m, sl.key)
	} else {
		ok = false
	}
	sh.mu.Unlock()

	if ok {
		sl.s.evict(sl.key, e.value)
	}
	return ok
}
