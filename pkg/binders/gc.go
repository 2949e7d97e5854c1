package binders

import (
	"runtime/debug"

	"github.com/metrics-sample/pkg/metrics"
)

// GCBinder 垃圾回收次数、累计暂停时间、堆目标与 GOGC
type GCBinder struct {
	opts options
}

func NewGCBinder(opts ...Option) *GCBinder {
	return &GCBinder{opts: newOptions(opts)}
}

func (b *GCBinder) Name() string { return "gc" }

func (b *GCBinder) BindTo(reg *metrics.Registry) error {
	const cyclesHelp = "Completed GC cycles."
	return bindAll(reg,
		counterFunc("go_gc_cycles_total", cyclesHelp, b.opts.with(metrics.Labels{"kind": "automatic"}),
			runtimeSum("/gc/cycles/automatic:gc-cycles")),
		counterFunc("go_gc_cycles_total", cyclesHelp, b.opts.with(metrics.Labels{"kind": "forced"}),
			runtimeSum("/gc/cycles/forced:gc-cycles")),
		counterFunc("go_gc_pause_seconds_total", "Total stop-the-world pause time.", b.opts.with(nil),
			gcPauseTotal),
		gauge("go_gc_heap_goal_bytes", "Heap size target for the end of the GC cycle.", b.opts.with(nil),
			runtimeSum("/gc/heap/goal:bytes")),
		gauge("go_gc_gogc_percent", "Heap size target percentage (GOGC).", b.opts.with(nil),
			runtimeSum("/gc/gogc:percent")),
	)
}

func (b *GCBinder) Close() error { return nil }

func gcPauseTotal() (float64, error) {
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	return stats.PauseTotal.Seconds(), nil
}
