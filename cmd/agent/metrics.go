package agent

import (
	"github.com/spf13/cobra"
)

func initMetricsFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("metrics.exposition", defaultCfg.Metrics.Exposition, "-> /metrics renderer [native,prometheus] | 指标渲染方式")
	f.Bool("metrics.type-comments", defaultCfg.Metrics.TypeComments, "-> Emit # HELP / # TYPE lines | 输出类型注释")
	f.StringToString("metrics.common-labels", defaultCfg.Metrics.CommonLabels, "-> Labels added to every runtime metric | 公共标签")

	sw := defaultCfg.Metrics.Binders
	f.Bool("metrics.binders.build", sw.Build, "启用构建信息")
	f.Bool("metrics.binders.memory", sw.Memory, "启用内存")
	f.Bool("metrics.binders.gc", sw.GC, "启用 GC")
	f.Bool("metrics.binders.threads", sw.Threads, "启用 goroutine/线程")
	f.Bool("metrics.binders.processor", sw.Processor, "启用 CPU/负载")
	f.Bool("metrics.binders.process", sw.Process, "启用进程资源")
}
