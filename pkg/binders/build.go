package binders

import (
	"runtime"
	"runtime/debug"

	"github.com/metrics-sample/pkg/metrics"
)

// BuildBinder 构建信息与已链接模块数
type BuildBinder struct {
	opts options
}

func NewBuildBinder(opts ...Option) *BuildBinder {
	return &BuildBinder{opts: newOptions(opts)}
}

func (b *BuildBinder) Name() string { return "build" }

func (b *BuildBinder) BindTo(reg *metrics.Registry) error {
	path, version, modules := "unknown", "unknown", 0
	if info, ok := debug.ReadBuildInfo(); ok {
		path, version, modules = info.Main.Path, info.Main.Version, len(info.Deps)
	}
	if path == "" {
		path = "unknown"
	}
	if version == "" {
		version = "unknown"
	}

	labels := b.opts.with(metrics.Labels{
		"goversion": runtime.Version(),
		"path":      path,
		"version":   version,
	})
	info, err := reg.Gauge("go_build_info", labels, nil, metrics.WithHelp("Build information; value is always 1."))
	if err != nil {
		return err
	}
	info.Set(1)

	loaded, err := reg.Gauge("go_modules_loaded", b.opts.with(nil), nil,
		metrics.WithHelp("Number of dependency modules linked into the binary."))
	if err != nil {
		return err
	}
	loaded.Set(float64(modules))
	return nil
}

func (b *BuildBinder) Close() error { return nil }
