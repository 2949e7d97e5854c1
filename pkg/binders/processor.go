package binders

import (
	"fmt"
	"os"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/metrics"
)

// ProcessorBinder CPU 核数、系统/进程 CPU 使用率、1 分钟负载（gopsutil）
type ProcessorBinder struct {
	opts options

	mu   sync.Mutex // process.Percent 内部保存上次采样，非并发安全
	proc *process.Process
}

func NewProcessorBinder(opts ...Option) *ProcessorBinder {
	return &ProcessorBinder{opts: newOptions(opts)}
}

func (b *ProcessorBinder) Name() string { return "processor" }

func (b *ProcessorBinder) BindTo(reg *metrics.Registry) error {
	// 预检查CPU可用性
	cores, err := cpu.Counts(true)
	if err != nil {
		return fmt.Errorf("get cpu counts: %w", err)
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return fmt.Errorf("open current process: %w", err)
	}
	b.mu.Lock()
	b.proc = proc
	b.mu.Unlock()
	b.opts.logger.Debug("processor binder ready", zap.Int("logical_cores", cores))

	return bindAll(reg,
		gauge("system_cpu_count", "Number of logical processors.", b.opts.with(nil),
			func() (float64, error) {
				n, err := cpu.Counts(true)
				return float64(n), err
			}),
		gauge("system_cpu_usage", "Recent system-wide CPU usage ratio (0-1).", b.opts.with(nil),
			systemCPUUsage),
		gauge("system_load_average_1m", "System load average over the last minute.", b.opts.with(nil),
			func() (float64, error) {
				avg, err := load.Avg()
				if err != nil {
					return 0, err
				}
				return avg.Load1, nil
			}),
		gauge("process_cpu_usage", "Recent CPU usage ratio of this process (0-1).", b.opts.with(nil),
			b.processCPUUsage),
	)
}

func (b *ProcessorBinder) Close() error {
	b.mu.Lock()
	b.proc = nil
	b.mu.Unlock()
	return nil
}

// systemCPUUsage interval=0 时与上一次调用比较
func systemCPUUsage() (float64, error) {
	usage, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(usage) == 0 {
		return 0, fmt.Errorf("cpu percent: empty result")
	}
	return usage[0] / 100, nil
}

func (b *ProcessorBinder) processCPUUsage() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil {
		return 0, fmt.Errorf("processor binder closed")
	}
	pct, err := b.proc.Percent(0)
	if err != nil {
		return 0, err
	}
	return pct / 100, nil
}
