package binders

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/metrics-sample/pkg/metrics"
)

// ProcessBinder 当前进程的常驻内存、文件描述符、线程数、CPU 时间、启动时间与运行时长
type ProcessBinder struct {
	opts options

	mu      sync.Mutex
	proc    *process.Process
	started time.Time
}

func NewProcessBinder(opts ...Option) *ProcessBinder {
	return &ProcessBinder{opts: newOptions(opts)}
}

func (b *ProcessBinder) Name() string { return "process" }

func (b *ProcessBinder) BindTo(reg *metrics.Registry) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return fmt.Errorf("open current process: %w", err)
	}
	createdMs, err := proc.CreateTime()
	if err != nil {
		return fmt.Errorf("read process start time: %w", err)
	}
	b.mu.Lock()
	b.proc = proc
	b.started = time.UnixMilli(createdMs)
	b.mu.Unlock()

	return bindAll(reg,
		gauge("process_resident_memory_bytes", "Resident set size in bytes.", b.opts.with(nil),
			b.sample(func(p *process.Process) (float64, error) {
				mem, err := p.MemoryInfo()
				if err != nil {
					return 0, err
				}
				return float64(mem.RSS), nil
			})),
		gauge("process_open_fds", "Number of open file descriptors.", b.opts.with(nil),
			b.sample(func(p *process.Process) (float64, error) {
				n, err := p.NumFDs()
				return float64(n), err
			})),
		gauge("process_threads", "Number of OS threads in the process.", b.opts.with(nil),
			b.sample(func(p *process.Process) (float64, error) {
				n, err := p.NumThreads()
				return float64(n), err
			})),
		gauge("process_start_time_seconds", "Start time of the process since unix epoch.", b.opts.with(nil),
			func() (float64, error) {
				return float64(b.started.UnixMilli()) / 1000, nil
			}),
		gauge("process_uptime_seconds", "Time since the process started.", b.opts.with(nil),
			func() (float64, error) {
				return time.Since(b.started).Seconds(), nil
			}),
		counterFunc("process_cpu_seconds_total", "Total user and system CPU time spent.", b.opts.with(nil),
			b.sample(func(p *process.Process) (float64, error) {
				times, err := p.Times()
				if err != nil {
					return 0, err
				}
				return times.User + times.System, nil
			})),
	)
}

func (b *ProcessBinder) Close() error {
	b.mu.Lock()
	b.proc = nil
	b.mu.Unlock()
	return nil
}

// sample 在锁内使用共享的 process 句柄
func (b *ProcessBinder) sample(fn func(p *process.Process) (float64, error)) metrics.SampleFunc {
	return func() (float64, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.proc == nil {
			return 0, fmt.Errorf("process binder closed")
		}
		return fn(b.proc)
	}
}
