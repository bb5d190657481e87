// Package metrics is the instrumentation capability: counters, gauges and
// histograms addressed by name plus a label set.
package metrics

import "time"

// Labels qualifies a metric. A nil map is the empty label set.
type Labels = map[string]string

// Recorder is implemented by every instrumentation backend. Methods never
// fail; backends that cannot record a sample drop it.
type Recorder interface {
	IncCounter(name string, labels Labels)
	AddCounter(name string, value float64, labels Labels)
	SetGauge(name string, value float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	ObserveDuration(name string, d time.Duration, labels Labels)
}

type null struct{}

// NewNull returns the recorder that discards everything.
func NewNull() Recorder { return null{} }

func (null) IncCounter(string, Labels)                     {}
func (null) AddCounter(string, float64, Labels)            {}
func (null) SetGauge(string, float64, Labels)              {}
func (null) ObserveHistogram(string, float64, Labels)      {}
func (null) ObserveDuration(string, time.Duration, Labels) {}

// Since records the time elapsed from start as a duration sample.
//
//	defer metrics.Since(rec, "job_duration_seconds", nil, time.Now())
func Since(r Recorder, name string, labels Labels, start time.Time) {
	r.ObserveDuration(name, time.Since(start), labels)
}
