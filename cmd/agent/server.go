package agent

import (
	"github.com/spf13/cobra"

	"github.com/metrics-sample/pkg/config"
)

var defaultCfg = config.NewDefaultConfig()

func initServerFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("server.addr", defaultCfg.Server.Addr, "-> HTTP listening address (HTTP监听地址)")
	f.String("server.engine", defaultCfg.Server.Engine, "-> HTTP engine [http,gin] (HTTP引擎)")
	f.String("server.runtime", defaultCfg.Server.Runtime, "-> Runtime name reported by /health (健康检查运行时名称)")
	f.Duration("server.read-timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration (读取超时时间)")
	f.Duration("server.write-timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration (写入超时时间)")
	f.Duration("server.idle-timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration (空闲连接超时时间)")
	f.Duration("server.shutdown-timeout", defaultCfg.Server.ShutdownTimeout, "-> Graceful shutdown timeout (优雅关闭超时)")
}
