// Package exposition 将 metrics.Snapshot 序列化为 Prometheus 文本格式（version 0.0.4），
// 并提供对接 client_golang 的桥接采集器。
package exposition

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/metrics-sample/pkg/metrics"
)

// ContentType /metrics 响应类型
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// Renderer 无状态的文本渲染器，同一快照输出确定
type Renderer struct {
	metadata bool
}

// RendererOption 渲染选项
type RendererOption func(*Renderer)

// WithMetadata 在每个指标族前输出 # HELP / # TYPE
func WithMetadata() RendererOption {
	return func(r *Renderer) { r.metadata = true }
}

// NewRenderer 创建渲染器
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	return r
}

// Render 渲染为字节
func (r *Renderer) Render(s metrics.Snapshot) []byte {
	var buf bytes.Buffer
	r.render(&buf, s)
	return buf.Bytes()
}

// Write 渲染并写入 w
func (r *Renderer) Write(w io.Writer, s metrics.Snapshot) error {
	var buf bytes.Buffer
	r.render(&buf, s)
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *Renderer) render(buf *bytes.Buffer, s metrics.Snapshot) {
	for _, f := range group(s.Families) {
		if r.metadata {
			if f.Help != "" {
				fmt.Fprintf(buf, "# HELP %s %s\n", f.Name, helpEscaper.Replace(f.Help))
			}
			fmt.Fprintf(buf, "# TYPE %s %s\n", f.Name, typeName(f.Kind))
		}
		for _, smp := range f.Samples {
			labels := smp.ID.LabelString()
			switch v := smp.Value.(type) {
			case metrics.CounterValue:
				writeLine(buf, f.Name, labels, float64(v))
			case metrics.GaugeValue:
				writeLine(buf, f.Name, labels, float64(v))
			case metrics.TimerValue:
				writeLine(buf, f.Name+metrics.CountSuffix, labels, float64(v.Count))
				writeLine(buf, f.Name+metrics.SumSuffix, labels, v.Sum)
			default:
				// Value 是封闭集合，走到这里说明新增了类型却没有更新渲染
				panic(fmt.Sprintf("exposition: unhandled value type %T", v))
			}
		}
	}
}

// group 同名指标族合并到首次出现的位置，族内按规范化标签串稳定排序
func group(families []metrics.Family) []metrics.Family {
	out := make([]metrics.Family, 0, len(families))
	index := make(map[string]int, len(families))
	for _, f := range families {
		if i, ok := index[f.Name]; ok {
			out[i].Samples = append(out[i].Samples, f.Samples...)
			if out[i].Help == "" {
				out[i].Help = f.Help
			}
			continue
		}
		index[f.Name] = len(out)
		f.Samples = append([]metrics.Sample(nil), f.Samples...)
		out = append(out, f)
	}
	for i := range out {
		samples := out[i].Samples
		sort.SliceStable(samples, func(a, b int) bool {
			return samples[a].ID.LabelString() < samples[b].ID.LabelString()
		})
	}
	return out
}

func writeLine(buf *bytes.Buffer, name, labels string, v float64) {
	buf.WriteString(name)
	if labels != "" {
		buf.WriteByte('{')
		buf.WriteString(labels)
		buf.WriteByte('}')
	}
	buf.WriteByte(' ')
	buf.WriteString(FormatValue(v))
	buf.WriteByte('\n')
}

func typeName(k metrics.Kind) string {
	switch k {
	case metrics.KindCounter:
		return "counter"
	case metrics.KindGauge:
		return "gauge"
	case metrics.KindTimer:
		return "summary"
	default:
		return "untyped"
	}
}

// FormatValue 定点小数输出，整数补 .0；极大/极小值退回指数形式
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case v == 0:
		return "0.0"
	}
	if abs := math.Abs(v); abs >= 1e15 || abs < 1e-6 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
