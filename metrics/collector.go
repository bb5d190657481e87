package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// historyLimit bounds the samples kept per histogram.
const historyLimit = 100

type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
)

// Metric is one series held by a Collector.
type Metric struct {
	Name      string            `json:"name"`
	Type      Kind              `json:"type"`
	Value     float64           `json:"value"`
	Count     uint64            `json:"count,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	History   []float64         `json:"history,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Collector keeps every series in process memory. Histograms store the sum
// in Value, the sample count in Count and the most recent samples in History.
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
	now     func() time.Time
}

func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
		now:     time.Now,
	}
}

func (c *Collector) IncCounter(name string, labels Labels) {
	c.AddCounter(name, 1, labels)
}

// AddCounter ignores negative values; counters only grow.
func (c *Collector) AddCounter(name string, value float64, labels Labels) {
	if value < 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.series(name, KindCounter, labels)
	m.Value += value
}

func (c *Collector) SetGauge(name string, value float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.series(name, KindGauge, labels)
	m.Value = value
}

func (c *Collector) ObserveHistogram(name string, value float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.series(name, KindHistogram, labels)
	m.Value += value
	m.Count++
	m.History = append(m.History, value)
	if len(m.History) > historyLimit {
		m.History = m.History[len(m.History)-historyLimit:]
	}
}

func (c *Collector) ObserveDuration(name string, d time.Duration, labels Labels) {
	c.ObserveHistogram(name, d.Seconds(), labels)
}

// series returns the entry for (name, labels), creating it. A name reused
// with a different kind replaces the old series. Caller holds the lock.
func (c *Collector) series(name string, kind Kind, labels Labels) *Metric {
	key := buildKey(name, labels)
	m, ok := c.metrics[key]
	if !ok || m.Type != kind {
		m = &Metric{Name: name, Type: kind, Labels: copyLabels(labels)}
		c.metrics[key] = m
	}
	m.Timestamp = c.now().Unix()
	return m
}

// GetMetric returns a copy of the series, or nil.
func (c *Collector) GetMetric(name string, labels Labels) *Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.metrics[buildKey(name, labels)]
	if !ok {
		return nil
	}
	return m.clone()
}

// Snapshot returns copies of all series ordered by key.
func (c *Collector) Snapshot() []Metric {
	c.mu.RLock()
	keys := make([]string, 0, len(c.metrics))
	for k := range c.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, *c.metrics[k].clone())
	}
	c.mu.RUnlock()
	return out
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

func (m *Metric) clone() *Metric {
	cp := *m
	cp.Labels = copyLabels(m.Labels)
	if m.History != nil {
		cp.History = append([]float64(nil), m.History...)
	}
	return &cp
}

// buildKey renders name{k=v,...} with labels sorted so that equal label sets
// map to one series regardless of iteration order.
func buildKey(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

func copyLabels(labels Labels) Labels {
	if len(labels) == 0 {
		return nil
	}
	cp := make(Labels, len(labels))
	for k, v := range labels {
		cp[k] = v
	}
	return cp
}
