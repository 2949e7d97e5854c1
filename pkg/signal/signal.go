package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WaitForShutdown 监听退出信号（SIGINT/SIGTERM），在 timeout 内执行优雅关闭
func WaitForShutdown(logger *zap.Logger, timeout time.Duration, shutdownFunc func(ctx context.Context) error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("service running, waiting for SIGINT/SIGTERM...")

	// 阻塞等待信号
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	return Shutdown(logger, timeout, shutdownFunc)
}

// Shutdown 超时控制关闭逻辑
func Shutdown(logger *zap.Logger, timeout time.Duration, shutdownFunc func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- shutdownFunc(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown failed", zap.Error(err))
			return err
		}
		logger.Info("shutdown completed")
		return nil
	case <-ctx.Done():
		logger.Warn("shutdown timed out", zap.Duration("timeout", timeout))
		return ctx.Err()
	}
}
