package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// LogLevels 可接受的日志级别，与 zap 级别一一对应；CLI 帮助与校验共用
var LogLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// LogFormats 控制台输出格式
var LogFormats = []string{"console", "json"}

// ValidLogLevel 大小写不敏感
func ValidLogLevel(level string) bool {
	return slices.Contains(LogLevels, strings.ToLower(level))
}

// Validate 先走 tag，再校验级别、保留策略与目录可用性（不存在则创建）
func (l *ZapLogConfig) Validate() error {
	if err := valid.Struct(l); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if !ValidLogLevel(l.Level) {
		return fmt.Errorf("log.level %q not in [%s]", l.Level, strings.Join(LogLevels, ","))
	}
	if !slices.Contains(LogFormats, l.Format) {
		return fmt.Errorf("log.format %q not in [%s]", l.Format, strings.Join(LogFormats, ","))
	}
	if l.MaxAge == 0 && l.MaxBackup == 0 {
		return errors.New("log.max_age and log.max_backup are both 0, rotated files would never be pruned")
	}

	dir, err := filepath.Abs(l.Path)
	if err != nil {
		return fmt.Errorf("log.path %q: %w", l.Path, err)
	}
	if err := mkdirIfMissing(dir); err != nil {
		return fmt.Errorf("log.path %q: %w", l.Path, err)
	}
	return nil
}

func mkdirIfMissing(dir string) error {
	fi, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0755)
	case err != nil:
		return err
	case !fi.IsDir():
		return fmt.Errorf("%s exists and is not a directory", dir)
	}
	return nil
}
