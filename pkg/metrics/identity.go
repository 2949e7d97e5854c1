package metrics

import (
	"regexp"
	"sort"
	"strings"
)

var (
	metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNameRE  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
)

// Labels 调用方传入的标签集合（无序）
type Labels map[string]string

// Label 单个标签键值对
type Label struct {
	Name  string
	Value string
}

// Identity 指标唯一标识：名称 + 按标签名排序后的标签集合，创建后不可变
type Identity struct {
	name   string
	labels []Label
	key    string
}

// NewIdentity 校验并规范化指标标识
func NewIdentity(name string, labels Labels) (Identity, error) {
	if !metricNameRE.MatchString(name) {
		return Identity{}, invalidArgument("metric name %q", name)
	}
	sorted := make([]Label, 0, len(labels))
	for k, v := range labels {
		if !labelNameRE.MatchString(k) || strings.HasPrefix(k, "__") {
			return Identity{}, invalidArgument("label name %q on metric %q", k, name)
		}
		sorted = append(sorted, Label{Name: k, Value: v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	id := Identity{name: name, labels: sorted}
	if len(sorted) == 0 {
		id.key = name
	} else {
		id.key = name + "{" + FormatLabels(sorted) + "}"
	}
	return id, nil
}

// Name 指标名
func (id Identity) Name() string { return id.name }

// Labels 返回标签副本（已排序）
func (id Identity) Labels() []Label {
	out := make([]Label, len(id.labels))
	copy(out, id.labels)
	return out
}

// Key 规范化字符串 name{a="1",b="2"}
func (id Identity) Key() string { return id.key }

// LabelString 规范化标签串 a="1",b="2"，用于同一指标族内排序
func (id Identity) LabelString() string { return FormatLabels(id.labels) }

// Equal 名称和标签集合完全一致
func (id Identity) Equal(other Identity) bool { return id.key == other.key }

func (id Identity) String() string { return id.key }

// FormatLabels 按给定顺序输出 k="v" 列表，值按文本格式转义
func FormatLabels(labels []Label) string {
	if len(labels) == 0 {
		return ""
	}
	var b strings.Builder
	for i, l := range labels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Name)
		b.WriteString(`="`)
		b.WriteString(labelValueEscaper.Replace(l.Value))
		b.WriteByte('"')
	}
	return b.String()
}

// MergeLabels 合并多个标签集合，后者覆盖前者
func MergeLabels(sets ...Labels) Labels {
	out := make(Labels)
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
