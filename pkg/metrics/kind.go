package metrics

// Kind 指标类型（封闭集合）
type Kind int

const (
	KindCounter Kind = iota + 1
	KindGauge
	KindTimer
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// Timer 指标族额外占用的派生名称后缀
const (
	CountSuffix = "_count"
	SumSuffix   = "_sum"
)
