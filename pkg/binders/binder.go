// Package binders 把 Go 运行时与主机状态绑定为注册表中的采样型指标。
// 每个 Binder 只负责注册 sample 回调，取值发生在抓取时。
package binders

import (
	"fmt"
	rtmetrics "runtime/metrics"

	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/metrics"
)

// Binder 采样绑定器（所有绑定器必须实现）
type Binder interface {
	Name() string                       // 绑定器名称（唯一标识）
	BindTo(reg *metrics.Registry) error // 注册指标
	Close() error                       // 释放采样资源
}

type options struct {
	labels metrics.Labels
	logger *zap.Logger
}

// Option 绑定器公共选项
type Option func(*options)

// WithCommonLabels 合并进每个指标标识的公共标签（如 application）
func WithCommonLabels(labels map[string]string) Option {
	return func(o *options) { o.labels = metrics.MergeLabels(o.labels, labels) }
}

// WithLogger 注入日志
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{labels: metrics.Labels{}, logger: zap.NewNop()}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// with 公共标签 + 指标自身标签
func (o options) with(labels metrics.Labels) metrics.Labels {
	return metrics.MergeLabels(o.labels, labels)
}

// runtimeSum 读取一组 runtime/metrics 指标并求和（单次 Read，无 STW）
func runtimeSum(names ...string) metrics.SampleFunc {
	return func() (float64, error) {
		samples := make([]rtmetrics.Sample, len(names))
		for i, n := range names {
			samples[i].Name = n
		}
		rtmetrics.Read(samples)

		total := 0.0
		for _, s := range samples {
			switch s.Value.Kind() {
			case rtmetrics.KindUint64:
				total += float64(s.Value.Uint64())
			case rtmetrics.KindFloat64:
				total += s.Value.Float64()
			default:
				return 0, fmt.Errorf("runtime metric %s is not a scalar", s.Name)
			}
		}
		return total, nil
	}
}

// registration 单个指标的注册动作
type registration func(reg *metrics.Registry) error

// bindAll 顺序注册，遇错立即返回
func bindAll(reg *metrics.Registry, regs ...registration) error {
	for _, r := range regs {
		if err := r(reg); err != nil {
			return err
		}
	}
	return nil
}

func gauge(name, help string, labels metrics.Labels, fn metrics.SampleFunc) registration {
	return func(reg *metrics.Registry) error {
		_, err := reg.Gauge(name, labels, fn, metrics.WithHelp(help))
		return err
	}
}

func counterFunc(name, help string, labels metrics.Labels, fn metrics.SampleFunc) registration {
	return func(reg *metrics.Registry) error {
		return reg.CounterFunc(name, labels, fn, metrics.WithHelp(help))
	}
}
