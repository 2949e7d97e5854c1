package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
)

// 定义颜色常量
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

var colors = map[string]string{
	"ColorRed":    ColorRed,
	"ColorGreen":  ColorGreen,
	"ColorYellow": ColorYellow,
	"ColorBlue":   ColorBlue,
	"ColorCyan":   ColorCyan,
}

// Banner 统一颜色的 ASCII banner；未知颜色不着色
func Banner(text, color string) string {
	ansi, ok := colors[color]
	var sb strings.Builder
	for _, line := range figure.NewFigure(text, "", true).Slicify() {
		if ok {
			sb.WriteString(ansi + line + ColorReset)
		} else {
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FprintBanner 写入指定输出
func FprintBanner(w io.Writer, text, color string) {
	_, _ = fmt.Fprint(w, Banner(text, color))
}

// PrintBanner 打印到 stdout
func PrintBanner(text, color string) {
	FprintBanner(os.Stdout, text, color)
}
