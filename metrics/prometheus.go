package metrics

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/leeforge/support/logging"
)

// Prometheus records into client_golang vectors created on first use. The
// label names of a metric are fixed by its first sample; later samples with
// a different label set are dropped and logged.
type Prometheus struct {
	namespace string
	registry  *prometheus.Registry
	logger    logging.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	labelNames map[string][]string
}

// NewPrometheus creates a recorder with its own registry. An empty namespace
// leaves metric names unprefixed.
func NewPrometheus(namespace string, logger logging.Logger) *Prometheus {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prometheus{
		namespace:  namespace,
		registry:   prometheus.NewRegistry(),
		logger:     logger,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labelNames: make(map[string][]string),
	}
}

func (p *Prometheus) IncCounter(name string, labels Labels) {
	p.AddCounter(name, 1, labels)
}

func (p *Prometheus) AddCounter(name string, value float64, labels Labels) {
	if value < 0 {
		return
	}
	vec := p.counterVec(name, labels)
	if vec == nil {
		return
	}
	vec.With(prometheus.Labels(labels)).Add(value)
}

func (p *Prometheus) SetGauge(name string, value float64, labels Labels) {
	vec := p.gaugeVec(name, labels)
	if vec == nil {
		return
	}
	vec.With(prometheus.Labels(labels)).Set(value)
}

func (p *Prometheus) ObserveHistogram(name string, value float64, labels Labels) {
	vec := p.histogramVec(name, labels)
	if vec == nil {
		return
	}
	vec.With(prometheus.Labels(labels)).Observe(value)
}

func (p *Prometheus) ObserveDuration(name string, d time.Duration, labels Labels) {
	p.ObserveHistogram(name, d.Seconds(), labels)
}

// Gatherer exposes the registry for tests and custom exporters.
func (p *Prometheus) Gatherer() prometheus.Gatherer {
	return p.registry
}

// Handler serves the registry in the text exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) counterVec(name string, labels Labels) *prometheus.CounterVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkLabels(name, labels) {
		return nil
	}
	if vec, ok := p.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      name,
	}, p.labelNames[name])
	if !p.register(name, vec) {
		return nil
	}
	p.counters[name] = vec
	return vec
}

func (p *Prometheus) gaugeVec(name string, labels Labels) *prometheus.GaugeVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkLabels(name, labels) {
		return nil
	}
	if vec, ok := p.gauges[name]; ok {
		return vec
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      name,
	}, p.labelNames[name])
	if !p.register(name, vec) {
		return nil
	}
	p.gauges[name] = vec
	return vec
}

func (p *Prometheus) histogramVec(name string, labels Labels) *prometheus.HistogramVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkLabels(name, labels) {
		return nil
	}
	if vec, ok := p.histograms[name]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      name,
		Buckets:   prometheus.DefBuckets,
	}, p.labelNames[name])
	if !p.register(name, vec) {
		return nil
	}
	p.histograms[name] = vec
	return vec
}

// checkLabels pins the label names of name on first use and rejects samples
// that disagree. Caller holds the lock.
func (p *Prometheus) checkLabels(name string, labels Labels) bool {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	pinned, ok := p.labelNames[name]
	if !ok {
		p.labelNames[name] = names
		return true
	}
	if strings.Join(pinned, ",") != strings.Join(names, ",") {
		p.logger.Warn("metric label mismatch",
			zap.String("metric", name),
			zap.Strings("want", pinned),
			zap.Strings("got", names),
		)
		return false
	}
	return true
}

func (p *Prometheus) register(name string, c prometheus.Collector) bool {
	if err := p.registry.Register(c); err != nil {
		p.logger.Warn("metric registration failed", zap.String("metric", name), zap.Error(err))
		return false
	}
	return true
}
