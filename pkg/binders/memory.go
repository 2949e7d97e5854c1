package binders

import (
	"github.com/metrics-sample/pkg/metrics"
)

// MemoryBinder 堆/栈内存使用量与已提交量，数据来自 runtime/metrics
type MemoryBinder struct {
	opts options
}

func NewMemoryBinder(opts ...Option) *MemoryBinder {
	return &MemoryBinder{opts: newOptions(opts)}
}

func (b *MemoryBinder) Name() string { return "memory" }

func (b *MemoryBinder) BindTo(reg *metrics.Registry) error {
	const (
		usedHelp      = "Memory currently in use by the Go runtime."
		committedHelp = "Memory obtained from the OS and held by the Go runtime."
	)
	heap := b.opts.with(metrics.Labels{"area": "heap"})
	stack := b.opts.with(metrics.Labels{"area": "stack"})
	total := b.opts.with(metrics.Labels{"area": "total"})

	return bindAll(reg,
		gauge("go_memory_used_bytes", usedHelp, heap,
			runtimeSum("/memory/classes/heap/objects:bytes")),
		gauge("go_memory_used_bytes", usedHelp, stack,
			runtimeSum("/memory/classes/heap/stacks:bytes")),
		gauge("go_memory_committed_bytes", committedHelp, heap,
			runtimeSum(
				"/memory/classes/heap/objects:bytes",
				"/memory/classes/heap/unused:bytes",
				"/memory/classes/heap/free:bytes",
			)),
		gauge("go_memory_committed_bytes", committedHelp, stack,
			runtimeSum("/memory/classes/heap/stacks:bytes", "/memory/classes/os-stacks:bytes")),
		gauge("go_memory_committed_bytes", committedHelp, total,
			runtimeSum("/memory/classes/total:bytes")),
		gauge("go_memory_limit_bytes", "Soft memory limit (GOMEMLIMIT).", b.opts.with(nil),
			runtimeSum("/gc/gomemlimit:bytes")),
	)
}

func (b *MemoryBinder) Close() error { return nil }
