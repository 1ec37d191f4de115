package metrics

import (
	"sync"
	"time"
)

// ============================================================================
// RateMeter - 速率计算器
// ============================================================================

// windowSize 滑动窗口的桶数（每桶 1 秒）
const windowSize = 60

// RateMeter 基于滑动窗口的速率计算器
//
// 使用 60 个 1 秒桶统计最近 60 秒内的事件数。
type RateMeter struct {
	mu       sync.Mutex
	buckets  [windowSize]int64
	lastIdx  int
	lastTime time.Time
	now      func() time.Time
}

// NewRateMeter 创建速率计算器
func NewRateMeter() *RateMeter {
	return newRateMeter(time.Now)
}

func newRateMeter(now func() time.Time) *RateMeter {
	return &RateMeter{
		lastTime: now(),
		now:      now,
	}
}

// Mark 记录 n 个事件
func (r *RateMeter) Mark(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked()
	r.buckets[r.lastIdx] += n
}

// Rate 返回窗口内的平均速率（次/秒）
func (r *RateMeter) Rate() float64 {
	return float64(r.Total()) / windowSize
}

// Total 返回窗口内的事件总数
func (r *RateMeter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked()
	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return total
}

// Reset 清空窗口
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [windowSize]int64{}
	r.lastIdx = 0
	r.lastTime = r.now()
}

// advanceLocked 把窗口推进到当前时间，清空经过的桶
func (r *RateMeter) advanceLocked() {
	now := r.now()
	seconds := int(now.Sub(r.lastTime) / time.Second)
	if seconds <= 0 {
		return
	}

	if seconds >= windowSize {
		r.buckets = [windowSize]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % windowSize
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}
