// Package metrics 进程内指标注册表：按 名称+标签 唯一标识管理 counter/gauge/timer，
// 并按需生成一致性快照供文本导出使用。
package metrics

import (
	"io"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registry 指标注册表（并发安全，进程内单实例，由入口显式创建并注入）
type Registry struct {
	logger *zap.Logger

	families sync.Map // map[string]*family
	reserved sync.Map // map[string]string  timer 派生名 -> timer 指标族名

	mu    sync.RWMutex // 保护指标族创建与 order
	order []*family

	closeMu   sync.Mutex
	closers   []io.Closer
	closed    atomic.Bool
	closeOnce sync.Once
}

type family struct {
	name   string
	kind   Kind
	help   atomic.Pointer[string]
	series sync.Map // map[string]*series
}

type series struct {
	id   Identity
	inst instrument
}

// Option 注册表选项
type Option func(*Registry)

// WithLogger 注入日志（采样失败时告警）
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

type instrumentConfig struct {
	help string
}

// InstrumentOption 单个指标的附加信息
type InstrumentOption func(*instrumentConfig)

// WithHelp 指标说明，同一指标族首个非空说明生效
func WithHelp(help string) InstrumentOption {
	return func(c *instrumentConfig) { c.help = help }
}

// NewRegistry 创建指标注册表
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: zap.NewNop()}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	return r
}

// Counter 获取或创建计数器；同一标识多次调用返回同一实例
func (r *Registry) Counter(name string, labels Labels, opts ...InstrumentOption) (*Counter, error) {
	inst, err := r.register(name, labels, KindCounter, opts, func() instrument { return &Counter{} })
	if err != nil {
		return nil, err
	}
	c := inst.(*Counter)
	if c.sample != nil {
		return nil, &ConfigurationError{Name: name, Existing: KindCounter, Requested: KindCounter,
			Reason: "already registered as a function counter"}
	}
	return c, nil
}

// CounterFunc 注册由采样函数提供值的计数器（累计量来自外部，如 GC 次数）
func (r *Registry) CounterFunc(name string, labels Labels, sample SampleFunc, opts ...InstrumentOption) error {
	if sample == nil {
		return invalidArgument("nil sample function for counter %q", name)
	}
	inst, err := r.register(name, labels, KindCounter, opts, func() instrument { return &Counter{sample: sample} })
	if err != nil {
		return err
	}
	if inst.(*Counter).sample == nil {
		return &ConfigurationError{Name: name, Existing: KindCounter, Requested: KindCounter,
			Reason: "already registered as a plain counter"}
	}
	return nil
}

// Gauge 获取或创建 gauge；sample 可为 nil，已存在时保留首次注册的采样函数
func (r *Registry) Gauge(name string, labels Labels, sample SampleFunc, opts ...InstrumentOption) (*Gauge, error) {
	inst, err := r.register(name, labels, KindGauge, opts, func() instrument { return &Gauge{sample: sample} })
	if err != nil {
		return nil, err
	}
	return inst.(*Gauge), nil
}

// Timer 获取或创建计时器
func (r *Registry) Timer(name string, labels Labels, opts ...InstrumentOption) (*Timer, error) {
	inst, err := r.register(name, labels, KindTimer, opts, func() instrument { return &Timer{} })
	if err != nil {
		return nil, err
	}
	return inst.(*Timer), nil
}

func (r *Registry) MustCounter(name string, labels Labels, opts ...InstrumentOption) *Counter {
	c, err := r.Counter(name, labels, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (r *Registry) MustGauge(name string, labels Labels, sample SampleFunc, opts ...InstrumentOption) *Gauge {
	g, err := r.Gauge(name, labels, sample, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

func (r *Registry) MustTimer(name string, labels Labels, opts ...InstrumentOption) *Timer {
	t, err := r.Timer(name, labels, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (r *Registry) register(
	name string,
	labels Labels,
	kind Kind,
	opts []InstrumentOption,
	create func() instrument,
) (instrument, error) {
	if r.closed.Load() {
		return nil, ErrRegistryClosed
	}
	id, err := NewIdentity(name, labels)
	if err != nil {
		return nil, err
	}
	var cfg instrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	fam, err := r.family(name, kind)
	if err != nil {
		return nil, err
	}
	if cfg.help != "" {
		fam.help.CompareAndSwap(nil, &cfg.help)
	}

	// 快速路径：已存在直接返回
	if v, ok := fam.series.Load(id.Key()); ok {
		return v.(*series).inst, nil
	}
	// 并发创建时先写入者胜出，其余调用拿到同一实例
	v, _ := fam.series.LoadOrStore(id.Key(), &series{id: id, inst: create()})
	return v.(*series).inst, nil
}

// family 获取或创建指标族，校验类型一致以及 timer 派生名占用
func (r *Registry) family(name string, kind Kind) (*family, error) {
	if v, ok := r.families.Load(name); ok {
		return checkKind(v.(*family), kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 加锁后再检查一次
	if v, ok := r.families.Load(name); ok {
		return checkKind(v.(*family), kind)
	}
	if owner, ok := r.reserved.Load(name); ok {
		return nil, &ConfigurationError{Name: name, Existing: KindTimer, Requested: kind,
			Reason: "name is derived from timer " + owner.(string)}
	}
	if kind == KindTimer {
		for _, derived := range []string{name + CountSuffix, name + SumSuffix} {
			if v, ok := r.families.Load(derived); ok {
				return nil, &ConfigurationError{Name: name, Existing: v.(*family).kind, Requested: kind,
					Reason: "derived name " + derived + " is already registered"}
			}
		}
		r.reserved.Store(name+CountSuffix, name)
		r.reserved.Store(name+SumSuffix, name)
	}

	fam := &family{name: name, kind: kind}
	r.families.Store(name, fam)
	r.order = append(r.order, fam)
	return fam, nil
}

func checkKind(fam *family, kind Kind) (*family, error) {
	if fam.kind != kind {
		return nil, &ConfigurationError{Name: fam.name, Existing: fam.kind, Requested: kind}
	}
	return fam, nil
}

// Snapshot 逐个指标原子读取，不持有全局锁；与并发注册交错时可能包含或遗漏新指标，
// 但不会重复
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	fams := make([]*family, len(r.order))
	copy(fams, r.order)
	r.mu.RUnlock()

	out := Snapshot{Families: make([]Family, 0, len(fams))}
	for _, fam := range fams {
		f := Family{Name: fam.name, Kind: fam.kind}
		if h := fam.help.Load(); h != nil {
			f.Help = *h
		}
		fam.series.Range(func(_, v any) bool {
			s := v.(*series)
			val, err := s.inst.read()
			if err != nil {
				r.logger.Warn("metric sample failed, exporting NaN",
					zap.String("metric", s.id.Key()), zap.Error(err))
				val = nanOf(s.inst.kind())
			}
			f.Samples = append(f.Samples, Sample{ID: s.id, Value: val})
			return true
		})
		if len(f.Samples) == 0 {
			continue
		}
		sort.Slice(f.Samples, func(i, j int) bool {
			return f.Samples[i].ID.LabelString() < f.Samples[j].ID.LabelString()
		})
		out.Families = append(out.Families, f)
	}
	return out
}

func nanOf(k Kind) Value {
	switch k {
	case KindCounter:
		return CounterValue(math.NaN())
	case KindTimer:
		return TimerValue{Sum: math.NaN()}
	default:
		return GaugeValue(math.NaN())
	}
}

// OnClose 登记需要在 Close 时释放的采样资源
func (r *Registry) OnClose(c io.Closer) {
	if c == nil {
		return
	}
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	r.closers = append(r.closers, c)
}

// Close 释放采样资源（逆序），之后拒绝新的注册；重复调用无副作用
func (r *Registry) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		r.closeMu.Lock()
		closers := r.closers
		r.closers = nil
		r.closeMu.Unlock()
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	})
	return err
}
