package status

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports every metric in a Registry as a Prometheus gauge
// Metric names are the registry keys with dots replaced, prefixed by namespace
type Collector struct {
	namespace string
	reg       *Registry
}

// NewCollector wraps reg; namespace prefixes every exported name
func NewCollector(namespace string, reg *Registry) *Collector {
	return &Collector{namespace: namespace, reg: reg}
}

// Describe sends no descriptors: the metric set grows at runtime, so the collector is unchecked
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect snapshots every registered value
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Floats.Range(func(key string, v *AtomicFloat) {
		c.emit(ch, key, v.Get())
	})
	c.reg.Ints.Range(func(key string, v *atomic.Int64) {
		c.emit(ch, key, float64(v.Load()))
	})
	c.reg.Bools.Range(func(key string, v *atomic.Bool) {
		val := 0.0
		if v.Load() {
			val = 1
		}
		c.emit(ch, key, val)
	})
}

func (c *Collector) emit(ch chan<- prometheus.Metric, key string, val float64) {
	desc := prometheus.NewDesc(c.MetricName(key), "vi-orbit status metric "+key, nil, nil)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, val)
}

// MetricName maps a registry key to its exported name
func (c *Collector) MetricName(key string) string {
	name := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	if c.namespace == "" {
		return name
	}
	return c.namespace + "_" + name
}
