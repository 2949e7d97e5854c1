package metrics

// Value 快照中的数值，仅由 CounterValue / GaugeValue / TimerValue 实现
type Value interface {
	Kind() Kind
	sealed()
}

type CounterValue float64

func (CounterValue) Kind() Kind { return KindCounter }
func (CounterValue) sealed()    {}

type GaugeValue float64

func (GaugeValue) Kind() Kind { return KindGauge }
func (GaugeValue) sealed()    {}

// TimerValue 派生出 _count 与 _sum（秒）
type TimerValue struct {
	Count uint64
	Sum   float64
}

func (TimerValue) Kind() Kind { return KindTimer }
func (TimerValue) sealed()    {}

// Sample 单条时间序列在快照时刻的值
type Sample struct {
	ID    Identity
	Value Value
}

// Family 同名指标族
type Family struct {
	Name    string
	Help    string
	Kind    Kind
	Samples []Sample
}

// Snapshot 按首次注册顺序排列的指标族
type Snapshot struct {
	Families []Family
}

// Snapshotter 可产生快照的数据源
type Snapshotter interface {
	Snapshot() Snapshot
}

// Len 样本总数
func (s Snapshot) Len() int {
	n := 0
	for _, f := range s.Families {
		n += len(f.Samples)
	}
	return n
}

// Find 按规范化 key 查找样本
func (s Snapshot) Find(key string) (Sample, bool) {
	for _, f := range s.Families {
		for _, smp := range f.Samples {
			if smp.ID.Key() == key {
				return smp, true
			}
		}
	}
	return Sample{}, false
}
