package registers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/binders"
	"github.com/metrics-sample/pkg/metrics"
)

// Agent 持有绑定器并管理其生命周期；取值发生在抓取时，因此没有定时采集循环
type Agent struct {
	reg     *metrics.Registry
	logger  *zap.Logger
	mu      sync.Mutex
	binders []binders.Binder
	bound   bool
}

// NewAgent 创建绑定器管理器
func NewAgent(reg *metrics.Registry, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{reg: reg, logger: logger}
}

// Register 注册绑定器
func (a *Agent) Register(b binders.Binder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.binders = append(a.binders, b)
}

// Binders 已注册绑定器（副本）
func (a *Agent) Binders() []binders.Binder {
	a.mu.Lock()
	defer a.mu.Unlock()
	copied := make([]binders.Binder, len(a.binders))
	copy(copied, a.binders)
	return copied
}

// BindAll 依次绑定；成功绑定的交给 Registry.Close 释放，失败的立即释放并中止
func (a *Agent) BindAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bound {
		return nil
	}
	for _, b := range a.binders {
		if err := b.BindTo(a.reg); err != nil {
			err = fmt.Errorf("bind %s: %w", b.Name(), err)
			return multierr.Append(err, b.Close())
		}
		a.reg.OnClose(b)
		a.logger.Debug("binder bound", zap.String("name", b.Name()))
	}
	a.bound = true
	return nil
}

// Shutdown 关闭注册表（逆序释放绑定器），受 ctx 超时约束
func (a *Agent) Shutdown(ctx context.Context) error {
	a.logger.Info("starting to shutdown metrics registry")

	done := make(chan error, 1)
	go func() { done <- a.reg.Close() }()

	select {
	case err := <-done:
		if err != nil {
			a.logger.Error("failed to close binders", zap.Error(err))
			return err
		}
		a.logger.Info("metrics registry closed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown metrics registry: %w", ctx.Err())
	}
}
