package registers

import (
	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/binders"
	"github.com/metrics-sample/pkg/config"
	"github.com/metrics-sample/pkg/metrics"
)

type Module struct {
	Enabled bool
	Name    string
	NewFunc func(opts ...binders.Option) binders.Binder
}

// InitRegistry 返回值
// reg    *metrics.Registry  唯一的指标注册表，注入到 server、handler 与绑定器
// agent  *Agent             绑定器管理器，退出时调用 Shutdown 释放采样资源
// err    error              任一绑定器失败时返回带绑定器名称的错误
func InitRegistry(cfg *config.Config, logger *zap.Logger) (*metrics.Registry, *Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := metrics.NewRegistry(metrics.WithLogger(logger.With(zap.String("component", "registry"))))
	agent := NewAgent(reg, logger.With(zap.String("component", "agent")))

	opts := []binders.Option{
		binders.WithCommonLabels(cfg.Metrics.CommonLabels),
		binders.WithLogger(logger.With(zap.String("component", "binders"))),
	}
	registered := RegisterBinders(agent, cfg, logger, opts...)

	if err := agent.BindAll(); err != nil {
		logger.Error("failed to bind runtime metrics", zap.Error(err))
		_ = reg.Close()
		return nil, nil, err
	}

	logger.Debug("all enabled binders bound",
		zap.Int("count", len(registered)),
		zap.Strings("enabled_binders", cfg.Metrics.Binders.Enabled()))
	return reg, agent, nil
}

// RegisterBinders 绑定器注册统一入口（扩展仅需在 modules 列表添加一条）
func RegisterBinders(agent *Agent, cfg *config.Config, logger *zap.Logger, opts ...binders.Option) []binders.Binder {
	sw := cfg.Metrics.Binders
	modules := []Module{
		{Enabled: sw.Build, Name: "build", NewFunc: func(o ...binders.Option) binders.Binder { return binders.NewBuildBinder(o...) }},
		{Enabled: sw.Memory, Name: "memory", NewFunc: func(o ...binders.Option) binders.Binder { return binders.NewMemoryBinder(o...) }},
		{Enabled: sw.GC, Name: "gc", NewFunc: func(o ...binders.Option) binders.Binder { return binders.NewGCBinder(o...) }},
		{Enabled: sw.Threads, Name: "threads", NewFunc: func(o ...binders.Option) binders.Binder { return binders.NewThreadsBinder(o...) }},
		{Enabled: sw.Processor, Name: "processor", NewFunc: func(o ...binders.Option) binders.Binder { return binders.NewProcessorBinder(o...) }},
		{Enabled: sw.Process, Name: "process", NewFunc: func(o ...binders.Option) binders.Binder { return binders.NewProcessBinder(o...) }},
	}

	var registered []binders.Binder
	for _, m := range modules {
		if !m.Enabled {
			logger.Debug("binder disabled", zap.String("name", m.Name))
			continue
		}
		b := m.NewFunc(opts...)
		agent.Register(b)
		registered = append(registered, b)
		logger.Debug("registered binder", zap.String("name", m.Name))
	}
	if len(registered) == 0 {
		logger.Info("no runtime binders enabled; only application metrics will be exposed")
	}
	return registered
}
