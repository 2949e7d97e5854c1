package binders

import (
	"runtime"
	"runtime/pprof"
	"sync/atomic"

	"github.com/metrics-sample/pkg/metrics"
)

// ThreadsBinder goroutine 数（当前/峰值）、OS 线程数、GOMAXPROCS
type ThreadsBinder struct {
	opts options
	peak atomic.Int64
}

func NewThreadsBinder(opts ...Option) *ThreadsBinder {
	return &ThreadsBinder{opts: newOptions(opts)}
}

func (b *ThreadsBinder) Name() string { return "threads" }

func (b *ThreadsBinder) BindTo(reg *metrics.Registry) error {
	b.observe()
	return bindAll(reg,
		gauge("go_goroutines", "Number of live goroutines.", b.opts.with(nil),
			func() (float64, error) { return float64(b.observe()), nil }),
		gauge("go_goroutines_peak", "Peak number of live goroutines observed.", b.opts.with(nil),
			func() (float64, error) {
				b.observe()
				return float64(b.peak.Load()), nil
			}),
		gauge("go_threads", "Number of OS threads created.", b.opts.with(nil),
			func() (float64, error) { return float64(pprof.Lookup("threadcreate").Count()), nil }),
		gauge("go_gomaxprocs", "Value of GOMAXPROCS.", b.opts.with(nil),
			func() (float64, error) { return float64(runtime.GOMAXPROCS(0)), nil }),
	)
}

func (b *ThreadsBinder) Close() error { return nil }

// observe 读取当前 goroutine 数并 CAS 更新峰值
func (b *ThreadsBinder) observe() int64 {
	n := int64(runtime.NumGoroutine())
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			return n
		}
	}
}
