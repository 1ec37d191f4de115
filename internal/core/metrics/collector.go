package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Collector 通道生命周期与投递指标
//
// 所有方法对 nil 接收者安全，未启用指标时组件直接持有 nil。
type Collector struct {
	created   prometheus.Counter
	evicted   prometheus.Counter
	active    prometheus.Gauge
	retries   prometheus.Counter
	delivered prometheus.Counter

	// 快照用的计数，与 prometheus 指标同步更新
	nCreated   atomic.Int64
	nEvicted   atomic.Int64
	nRetries   atomic.Int64
	nDelivered atomic.Int64

	rate *RateMeter
}

// New 创建 Collector
//
// reg 为 nil 时只计数不注册。
func New(namespace, subsystem string, reg prometheus.Registerer) (*Collector, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}
	}

	c := &Collector{
		created:   prometheus.NewCounter(prometheus.CounterOpts(opts("lanes_created_total", "Number of lanes created."))),
		evicted:   prometheus.NewCounter(prometheus.CounterOpts(opts("lanes_evicted_total", "Number of lanes evicted from the registry."))),
		active:    prometheus.NewGauge(prometheus.GaugeOpts(opts("lanes_active", "Number of lanes currently registered."))),
		retries:   prometheus.NewCounter(prometheus.CounterOpts(opts("push_retries_total", "Number of pushes retried after hitting a closed lane."))),
		delivered: prometheus.NewCounter(prometheus.CounterOpts(opts("delivered_total", "Number of values delivered into lanes."))),
		rate:      NewRateMeter(),
	}

	if reg != nil {
		var err error
		registered := make([]prometheus.Collector, 0, len(c.collectors()))
		for _, m := range c.collectors() {
			if e := reg.Register(m); e != nil {
				err = multierr.Append(err, e)
				continue
			}
			registered = append(registered, m)
		}
		if err != nil {
			for _, m := range registered {
				reg.Unregister(m)
			}
			return nil, err
		}
	}
	return c, nil
}

// LaneCreated 记录一次通道创建
func (c *Collector) LaneCreated() {
	if c == nil {
		return
	}
	c.created.Inc()
	c.active.Inc()
	c.nCreated.Add(1)
}

// LaneEvicted 记录一次通道驱逐
func (c *Collector) LaneEvicted() {
	if c == nil {
		return
	}
	c.evicted.Inc()
	c.active.Dec()
	c.nEvicted.Add(1)
}

// Retry 记录一次投递重试
func (c *Collector) Retry() {
	if c == nil {
		return
	}
	c.retries.Inc()
	c.nRetries.Add(1)
}

// Delivered 记录一次成功投递
func (c *Collector) Delivered() {
	if c == nil {
		return
	}
	c.delivered.Inc()
	c.nDelivered.Add(1)
	c.rate.Mark(1)
}

// Snapshot 返回当前指标快照
func (c *Collector) Snapshot() Stats {
	if c == nil {
		return Stats{}
	}
	created := c.nCreated.Load()
	evicted := c.nEvicted.Load()
	return Stats{
		LanesCreated: created,
		LanesEvicted: evicted,
		ActiveLanes:  created - evicted,
		Retries:      c.nRetries.Load(),
		Delivered:    c.nDelivered.Load(),
		DeliverRate:  c.rate.Rate(),
	}
}

// Unregister 从 reg 注销所有指标
func (c *Collector) Unregister(reg prometheus.Registerer) {
	if c == nil || reg == nil {
		return
	}
	for _, m := range c.collectors() {
		reg.Unregister(m)
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.created, c.evicted, c.active, c.retries, c.delivered}
}
