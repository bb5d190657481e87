package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/leeforge/support/cache"
	"github.com/leeforge/support/diagnostics"
	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/mail"
	"github.com/leeforge/support/metrics"
)

var (
	_ cache.Cache          = (*Cache)(nil)
	_ mail.Sender          = (*Sender)(nil)
	_ diagnostics.Reporter = (*Reporter)(nil)
	_ metrics.Recorder     = (*Recorder)(nil)
)

// Call is one recorded method invocation.
type Call struct {
	Method string
	Args   []any
}

type calls struct {
	mu  sync.Mutex
	log []Call
}

func (c *calls) add(method string, args ...any) {
	c.mu.Lock()
	c.log = append(c.log, Call{Method: method, Args: args})
	c.mu.Unlock()
}

// Calls returns a copy of the recorded calls in order.
func (c *calls) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.log...)
}

// Count returns how many times method was called.
func (c *calls) Count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.log {
		if call.Method == method {
			n++
		}
	}
	return n
}

// Cache is a map-backed cache that records every call. TTLs are recorded
// but not enforced.
type Cache struct {
	calls
	mu     sync.Mutex
	values map[string]any
}

func NewCache() *Cache {
	return &Cache{values: make(map[string]any)}
}

func (c *Cache) Exists(_ context.Context, path string) bool {
	c.add("Exists", path)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[path]
	return ok
}

func (c *Cache) Get(_ context.Context, path string) (any, bool) {
	c.add("Get", path)
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[path]
	return v, ok
}

func (c *Cache) Set(_ context.Context, path string, value any, ttl time.Duration) error {
	c.add("Set", path, value, ttl)
	c.mu.Lock()
	c.values[path] = value
	c.mu.Unlock()
	return nil
}

func (c *Cache) Invalidate(_ context.Context, path string) error {
	c.add("Invalidate", path)
	c.mu.Lock()
	delete(c.values, path)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Flush(context.Context) error {
	c.add("Flush")
	c.mu.Lock()
	c.values = make(map[string]any)
	c.mu.Unlock()
	return nil
}

// SentMail is one message accepted by Sender.
type SentMail struct {
	TemplateID string
	From       string
	To         []string
	Subject    string
	Body       string
	Vars       map[string]any
}

// Sender records messages instead of delivering them. Err, when set, is
// returned from every send.
type Sender struct {
	calls
	Err  error
	mu   sync.Mutex
	sent []SentMail
}

func NewSender() *Sender { return &Sender{} }

func (s *Sender) SendRaw(_ context.Context, from string, to []string, subject, body string) error {
	s.add("SendRaw", from, to, subject, body)
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	s.sent = append(s.sent, SentMail{From: from, To: to, Subject: subject, Body: body})
	s.mu.Unlock()
	return nil
}

func (s *Sender) SendTemplated(_ context.Context, templateID, from string, to []string, vars map[string]any) error {
	s.add("SendTemplated", templateID, from, to, vars)
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	s.sent = append(s.sent, SentMail{TemplateID: templateID, From: from, To: to, Vars: vars})
	s.mu.Unlock()
	return nil
}

func (s *Sender) Sent() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMail(nil), s.sent...)
}

// Report is one call to Reporter.Report.
type Report struct {
	Message string
	Type    apperrors.ErrorType
	Info    diagnostics.DebugInfo
}

type Reporter struct {
	mu      sync.Mutex
	reports []Report
}

func NewReporter() *Reporter { return &Reporter{} }

func (r *Reporter) Report(_ context.Context, message string, errType apperrors.ErrorType, info diagnostics.DebugInfo) {
	r.mu.Lock()
	r.reports = append(r.reports, Report{Message: message, Type: errType, Info: info})
	r.mu.Unlock()
}

func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}

// Sample is one value passed to Recorder.
type Sample struct {
	Kind   string
	Name   string
	Value  float64
	Labels metrics.Labels
}

type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(kind, name string, value float64, labels metrics.Labels) {
	r.mu.Lock()
	r.samples = append(r.samples, Sample{Kind: kind, Name: name, Value: value, Labels: labels})
	r.mu.Unlock()
}

func (r *Recorder) IncCounter(name string, labels metrics.Labels) {
	r.record("counter", name, 1, labels)
}

func (r *Recorder) AddCounter(name string, value float64, labels metrics.Labels) {
	r.record("counter", name, value, labels)
}

func (r *Recorder) SetGauge(name string, value float64, labels metrics.Labels) {
	r.record("gauge", name, value, labels)
}

func (r *Recorder) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	r.record("histogram", name, value, labels)
}

func (r *Recorder) ObserveDuration(name string, d time.Duration, labels metrics.Labels) {
	r.record("histogram", name, d.Seconds(), labels)
}

func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Total sums every sample recorded under name.
func (r *Recorder) Total(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, s := range r.samples {
		if s.Name == name {
			total += s.Value
		}
	}
	return total
}
