package agent

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/metrics-sample/internal/server"
	"github.com/metrics-sample/pkg/config"
	"github.com/metrics-sample/pkg/logger"
	"github.com/metrics-sample/pkg/registers"
	"github.com/metrics-sample/pkg/signal"
	"github.com/metrics-sample/pkg/util"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "metrics-sample",
	Short: "Health + Prometheus metrics sample service with a hand-rolled metrics registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			// 统一输出错误到 stderr，不返回给 cobra
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "请检查配置文件路径或使用 -c 参数指定\n")
			os.Exit(1)
		}
		if err := runServer(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "服务启动失败: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "配置文件路径")
	// 注册分组 flag
	initServerFlags(rootCmd)
	initMetricsFlags(rootCmd)
	initLogFlags(rootCmd)
}

func runServer(cfg *config.Config) error {
	//初始化日志
	zl, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	defer logger.Sync()
	logger.SetDefaultComponent("agent")

	util.PrintBanner("metrics-sample", "ColorBlue")
	logger.Info("log initialization successful",
		zap.String("path", cfg.Log.Path),
		zap.String("level", cfg.Log.Level),
		zap.String("format", cfg.Log.Format))
	logger.Info("host", zap.Int("cpus", runtime.NumCPU()), zap.String("go", runtime.Version()))

	// init Registry
	reg, agent, err := registers.InitRegistry(cfg, zl)
	if err != nil {
		return fmt.Errorf("init metrics registry: %w", err)
	}

	httpServer, err := server.New(cfg, reg, zl.With(zap.String("component", "server")))
	if err != nil {
		_ = agent.Shutdown(context.Background())
		return fmt.Errorf("init HTTP server: %w", err)
	}
	if err := httpServer.Start(); err != nil {
		_ = agent.Shutdown(context.Background())
		return fmt.Errorf("start HTTP server failed: %w", err)
	}

	// 关闭顺序：HTTP服务 → 绑定器/注册表
	return signal.WaitForShutdown(zl, cfg.Server.ShutdownTimeout, func(ctx context.Context) error {
		err := httpServer.Shutdown(ctx)
		err = multierr.Append(err, agent.Shutdown(ctx))
		if err == nil {
			logger.Info("all services shutdown successfully")
		}
		return err
	})
}
