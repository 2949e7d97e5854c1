package metrics

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// SampleFunc 读取时调用的采样函数，每次导出都重新调用，不缓存
type SampleFunc func() (float64, error)

// instrument 封闭的指标实例集合：*Counter / *Gauge / *Timer
type instrument interface {
	kind() Kind
	read() (Value, error)
}

// Counter 单调递增计数器（float64，CAS 更新）
type Counter struct {
	bits   atomic.Uint64
	sample SampleFunc
}

func (c *Counter) kind() Kind { return KindCounter }

// Add 增加 delta，delta 必须 >= 0
func (c *Counter) Add(delta float64) error {
	if c.sample != nil {
		return invalidArgument("counter is backed by a sample function")
	}
	if delta < 0 || math.IsNaN(delta) {
		return invalidArgument("counter increment %v", delta)
	}
	addFloat(&c.bits, delta)
	return nil
}

// Inc 加 1。函数计数器的值只来自采样函数，Inc 对其不生效；需要感知时用 Add
func (c *Counter) Inc() {
	if c.sample != nil {
		return
	}
	addFloat(&c.bits, 1)
}

// Value 当前值；函数计数器采样失败时返回 NaN
func (c *Counter) Value() float64 {
	v, err := c.value()
	if err != nil {
		return math.NaN()
	}
	return v
}

func (c *Counter) value() (float64, error) {
	if c.sample != nil {
		return callSample(c.sample)
	}
	return math.Float64frombits(c.bits.Load()), nil
}

func (c *Counter) read() (Value, error) {
	v, err := c.value()
	return CounterValue(v), err
}

// Gauge 任意浮点值，可选读取时采样
type Gauge struct {
	bits   atomic.Uint64
	sample SampleFunc
}

func (g *Gauge) kind() Kind { return KindGauge }

// Set 设置当前值（采样型 gauge 的值以采样结果为准）
func (g *Gauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

func (g *Gauge) Add(delta float64) {
	addFloat(&g.bits, delta)
}

func (g *Gauge) Inc() { g.Add(1) }

func (g *Gauge) Dec() { g.Add(-1) }

// Value 当前值；采样失败时返回 NaN
func (g *Gauge) Value() float64 {
	v, err := g.value()
	if err != nil {
		return math.NaN()
	}
	return v
}

func (g *Gauge) value() (float64, error) {
	if g.sample != nil {
		return callSample(g.sample)
	}
	return math.Float64frombits(g.bits.Load()), nil
}

func (g *Gauge) read() (Value, error) {
	v, err := g.value()
	return GaugeValue(v), err
}

// Timer 记录事件次数与总耗时
type Timer struct {
	mu    sync.Mutex
	count uint64
	sum   time.Duration
}

func (t *Timer) kind() Kind { return KindTimer }

// Record 记录一次耗时，d 必须 >= 0
func (t *Timer) Record(d time.Duration) error {
	if d < 0 {
		return invalidArgument("timer duration %s", d)
	}
	t.mu.Lock()
	t.count++
	t.sum += d
	t.mu.Unlock()
	return nil
}

// RecordSince 记录从 start 到现在的耗时；墙钟回拨导致的负值按 0 记
func (t *Timer) RecordSince(start time.Time) {
	d := time.Since(start)
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.count++
	t.sum += d
	t.mu.Unlock()
}

// Time 执行 fn 并记录其耗时
func (t *Timer) Time(fn func()) {
	start := time.Now()
	defer t.RecordSince(start)
	fn()
}

func (t *Timer) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *Timer) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sum
}

func (t *Timer) read() (Value, error) {
	t.mu.Lock()
	v := TimerValue{Count: t.count, Sum: t.sum.Seconds()}
	t.mu.Unlock()
	return v, nil
}

func addFloat(bits *atomic.Uint64, delta float64) {
	for {
		old := bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// callSample 调用采样函数，panic 转换为 error，不影响整个抓取
func callSample(fn SampleFunc) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = math.NaN(), fmt.Errorf("sample function panicked: %v", r)
		}
	}()
	v, err = fn()
	if err != nil {
		return math.NaN(), err
	}
	return v, nil
}
