package eventx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter 指标导出接口
type MetricsExporter interface {
	Export(metrics map[string]interface{}) (string, error)
}

// PrometheusExporter Prometheus 文本格式导出器
type PrometheusExporter struct {
	prefix string
}

func NewPrometheusExporter(prefix string) *PrometheusExporter {
	return &PrometheusExporter{prefix: prefix}
}

// Export 导出数值类指标，按名称排序
func (e *PrometheusExporter) Export(metrics map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		metricName := fmt.Sprintf("%s_%s", e.prefix, strings.ReplaceAll(k, "-", "_"))
		switch val := metrics[k].(type) {
		case float64:
			sb.WriteString(fmt.Sprintf("%s %f\n", metricName, val))
		case uint64:
			sb.WriteString(fmt.Sprintf("%s %d\n", metricName, val))
		case int64:
			sb.WriteString(fmt.Sprintf("%s %d\n", metricName, val))
		case int:
			sb.WriteString(fmt.Sprintf("%s %d\n", metricName, val))
		}
	}

	return sb.String(), nil
}

// JSONExporter JSON 格式导出器
type JSONExporter struct {
	pretty bool
}

func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{pretty: pretty}
}

func (e *JSONExporter) Export(metrics map[string]interface{}) (string, error) {
	if e.pretty {
		data, err := json.MarshalIndent(metrics, "", "  ")
		return string(data), err
	}
	data, err := json.Marshal(metrics)
	return string(data), err
}

// Collector 将调度器指标暴露给 Prometheus 注册表
type Collector struct {
	dispatcher *Dispatcher

	emits      *prometheus.Desc
	deliveries *prometheus.Desc
	failures   *prometheus.Desc
	panics     *prometheus.Desc
	duplicates *prometheus.Desc
	onceRemove *prometheus.Desc
	ownerClear *prometheus.Desc
	listeners  *prometheus.Desc
	owners     *prometheus.Desc
	perEvent   *prometheus.Desc
}

// NewCollector 创建调度器指标采集器
func NewCollector(d *Dispatcher, namespace string) *Collector {
	labels := prometheus.Labels{"dispatcher": d.Name()}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "eventx", name), help, variable, labels)
	}

	return &Collector{
		dispatcher: d,
		emits:      desc("emits_total", "Number of dispatch rounds with at least one listener."),
		deliveries: desc("deliveries_total", "Number of callbacks that completed without error."),
		failures:   desc("callback_failures_total", "Number of callbacks that returned an error or panicked."),
		panics:     desc("callback_panics_total", "Number of callbacks that panicked."),
		duplicates: desc("duplicates_rejected_total", "Number of rejected duplicate registrations."),
		onceRemove: desc("once_removals_total", "Number of one-shot listeners removed after firing."),
		ownerClear: desc("owner_clears_total", "Number of bulk owner teardowns."),
		listeners:  desc("listeners", "Current number of listener records."),
		owners:     desc("owners", "Current number of owners holding listeners."),
		perEvent:   desc("event_listeners", "Current number of listener records per event.", "event"),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.emits
	ch <- c.deliveries
	ch <- c.failures
	ch <- c.panics
	ch <- c.duplicates
	ch <- c.onceRemove
	ch <- c.ownerClear
	ch <- c.listeners
	ch <- c.owners
	ch <- c.perEvent
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.dispatcher.GetMetrics()
	counter := func(desc *prometheus.Desc, key string) {
		if v, ok := snap[key].(uint64); ok {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
		}
	}
	gauge := func(desc *prometheus.Desc, key string) {
		if v, ok := snap[key].(int64); ok {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v))
		}
	}

	counter(c.emits, "emits")
	counter(c.deliveries, "deliveries")
	counter(c.failures, "failures")
	counter(c.panics, "panics_recovered")
	counter(c.duplicates, "duplicates_rejected")
	counter(c.onceRemove, "once_removals")
	counter(c.ownerClear, "owner_clears")
	gauge(c.listeners, "active_listeners")
	gauge(c.owners, "active_owners")

	for event, n := range c.dispatcher.ListenerCounts() {
		ch <- prometheus.MustNewConstMetric(c.perEvent, prometheus.GaugeValue, float64(n), event)
	}
}
