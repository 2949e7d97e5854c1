package agent

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/metrics-sample/pkg/config"
)

func initLogFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	d := defaultCfg.Log

	levels := "[" + strings.Join(config.LogLevels, ",") + "]"
	formats := "[" + strings.Join(config.LogFormats, ",") + "]"

	f.String("log.level", d.Level, "-> Log level "+levels+" | 日志级别")
	f.String("log.format", d.Format, "-> Console log format "+formats+" | 控制台格式")
	f.String("log.path", d.Path, "-> Directory for rotated JSON log files | 日志目录")
	f.Int("log.max-size", d.MaxSize, "-> Rotate when a file exceeds this many MB | 单文件上限 MB")
	f.Int("log.max-backup", d.MaxBackup, "-> Rotated files kept when max-age is 0 | 保留文件数")
	f.Int("log.max-age", d.MaxAge, "-> Days rotated files are kept | 保留天数")
}
