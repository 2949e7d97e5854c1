package exposition

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/metrics-sample/pkg/metrics"
)

// Collector 把 metrics.Snapshotter 适配为 prometheus.Collector（unchecked collector），
// 用于 metrics.exposition=prometheus 时交给 promhttp 输出
type Collector struct {
	src    metrics.Snapshotter
	logger *zap.Logger
}

// NewCollector 创建桥接采集器
func NewCollector(src metrics.Snapshotter, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{src: src, logger: logger}
}

// Describe 不发送任何描述，注册为 unchecked collector（指标集合在运行期可增长）
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect 每次抓取读取一次快照
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.src.Snapshot().Families {
		for _, s := range f.Samples {
			labels := s.ID.Labels()
			names := make([]string, len(labels))
			values := make([]string, len(labels))
			for i, l := range labels {
				names[i], values[i] = l.Name, l.Value
			}
			desc := prometheus.NewDesc(f.Name, f.Help, names, nil)

			var (
				m   prometheus.Metric
				err error
			)
			switch v := s.Value.(type) {
			case metrics.CounterValue:
				m, err = prometheus.NewConstMetric(desc, prometheus.CounterValue, float64(v), values...)
			case metrics.GaugeValue:
				m, err = prometheus.NewConstMetric(desc, prometheus.GaugeValue, float64(v), values...)
			case metrics.TimerValue:
				m, err = prometheus.NewConstSummary(desc, v.Count, v.Sum, nil, values...)
			}
			if err != nil {
				c.logger.Warn("convert metric failed", zap.String("metric", s.ID.Key()), zap.Error(err))
				m = prometheus.NewInvalidMetric(desc, err)
			}
			if m != nil {
				ch <- m
			}
		}
	}
}
