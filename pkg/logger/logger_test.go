package logger_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/metrics-sample/pkg/config"
	"github.com/metrics-sample/pkg/logger"
)

// mockFatalHook 捕获 fatal 日志（不退出进程）
type mockFatalHook struct {
	called bool
}

func (h *mockFatalHook) Hook(e zapcore.Entry) error {
	if e.Level == zapcore.FatalLevel {
		h.called = true
	}
	return nil
}

func testConfig(t *testing.T) *config.ZapLogConfig {
	return &config.ZapLogConfig{
		Level:     "debug",
		Format:    "json",
		Path:      t.TempDir(),
		MaxSize:   1,
		MaxBackup: 3,
		MaxAge:    0,
	}
}

func TestLoggerLevels(t *testing.T) {
	t.Cleanup(logger.ReplaceForTest(nil))
	cfg := testConfig(t)
	l, err := logger.InitLogger(cfg)
	require.NoError(t, err)

	// 普通日志
	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	// Panic 测试
	assert.Panics(t, func() { logger.Panic("panic msg") })

	// Fatal 测试（使用 zap.Hooks + WithFatalHook，不触发 os.Exit）
	hook := &mockFatalHook{}
	fl := l.WithOptions(zap.Hooks(hook.Hook), zap.WithFatalHook(zapcore.WriteThenGoexit))
	done := make(chan struct{})
	go func() {
		defer close(done)
		fl.Fatal("fatal msg")
	}()
	<-done
	assert.True(t, hook.called)

	require.NoError(t, logger.Sync())
	files, err := filepath.Glob(filepath.Join(cfg.Path, "metrics-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestHelpersAddComponentAndGoid(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(logger.ReplaceForTest(zap.New(core)))

	logger.SetDefaultComponent("server")
	t.Cleanup(func() { logger.SetDefaultComponent("main") })
	logger.Info("hello", zap.String("k", "v"))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "server", ctx["component"])
	assert.NotEmpty(t, ctx["goid"])
	assert.Equal(t, "v", ctx["k"])
}

func TestNamed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(logger.ReplaceForTest(zap.New(core)))

	logger.Named("registry").Info("x")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "registry", logs.All()[0].ContextMap()["component"])
}

func TestFallbackIsNop(t *testing.T) {
	t.Cleanup(logger.ReplaceForTest(nil))
	assert.NotPanics(t, func() { logger.Info("dropped") })
	assert.NoError(t, logger.Sync())
}

func TestNew_RejectsNilConfig(t *testing.T) {
	_, err := logger.New(nil)
	assert.Error(t, err)
}
