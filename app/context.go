// Package app owns the capability holders of one application instance.
//
// Every capability starts out served by its null object. Bootstrap installs
// the implementations named by configuration; code may also install its own
// at any time. Nothing here is process-global, so tests can build as many
// contexts as they need.
package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap/zapcore"

	"github.com/leeforge/support/cache"
	"github.com/leeforge/support/capability"
	"github.com/leeforge/support/config"
	"github.com/leeforge/support/diagnostics"
	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/logging"
	"github.com/leeforge/support/mail"
	"github.com/leeforge/support/metrics"
	"github.com/leeforge/support/redis_client"
	"github.com/leeforge/support/registry"
	"github.com/leeforge/support/render"
	"github.com/leeforge/support/store"
)

// Options configures New. Zero values are usable.
type Options struct {
	// Resolver supplies configuration. Nil means an empty tree.
	Resolver *config.Resolver
	// Logger is the root logger. Nil means one built from the "log"
	// subtree, or the process default when that is absent.
	Logger logging.Logger
	// Policy applies to both registries. The default aborts on unknown keys.
	Policy registry.Policy
}

type Context struct {
	resolver *config.Resolver
	logger   logging.Logger
	loggers  *logging.Factory
	policy   registry.Policy

	drivers *registry.Registry[Driver]
	objects *registry.Registry[any]

	cache       *capability.Holder[cache.Cache]
	mail        *capability.Holder[mail.Sender]
	metrics     *capability.Holder[metrics.Recorder]
	diagnostics *capability.Holder[diagnostics.Reporter]
	connection  *capability.Holder[store.Conn]

	rendererMu sync.RWMutex
	renderer   render.Renderer

	redisMu     sync.Mutex
	redisClient *redis.Client

	closeMu  sync.Mutex
	closers  []io.Closer
	logFiles io.Closer
}

const (
	logEntriesMetric  = "log_entries_total"
	metricsLoggerName = "app.metrics"
)

func New(opts Options) (*Context, error) {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = config.NewResolver(nil)
	}

	logger := opts.Logger
	var logFiles io.Closer
	if logger == nil {
		l, closer, err := loggerFromConfig(resolver)
		if err != nil {
			return nil, err
		}
		logger, logFiles = l, closer
	}

	c := &Context{
		resolver:    resolver,
		policy:      opts.Policy,
		logFiles:    logFiles,
		cache:       capability.NewHolder(capability.Cache, cache.NewNull),
		mail:        capability.NewHolder(capability.Mail, mail.NewNull),
		metrics:     capability.NewHolder(capability.Metrics, metrics.NewNull),
		diagnostics: capability.NewHolder(capability.Diagnostics, diagnostics.NewNull),
		connection:  capability.NewHolder(capability.Connection, store.NewNullConn),
	}
	c.logger = logging.WithHooks(logger, c.countLogEntry).Named("app")
	c.loggers = logging.NewFactory(c.logger)
	c.drivers = registry.New[Driver](registry.WithPolicy(opts.Policy), registry.WithLogger(c.loggers.GetLogger("registry")))
	c.objects = registry.New[any](registry.WithPolicy(opts.Policy), registry.WithLogger(c.loggers.GetLogger("registry")))
	registerBuiltinDrivers(c)
	return c, nil
}

// loggerFromConfig returns a nil closer when the process default is used.
func loggerFromConfig(r *config.Resolver) (logging.Logger, io.Closer, error) {
	if !r.Has("log") {
		return logging.Global(), nil, nil
	}
	cfg := logging.DefaultConfig()
	if err := r.Bind("log", &cfg); err != nil {
		return nil, nil, err
	}
	logger, closer := logging.Open(cfg)
	return logger, closer, nil
}

// countLogEntry feeds log volume per level into the installed metrics
// capability. Entries logged by the metrics backend itself are skipped so a
// failing recorder cannot feed on its own warnings.
func (c *Context) countLogEntry(entry zapcore.Entry) error {
	if entry.LoggerName == metricsLoggerName || strings.HasSuffix(entry.LoggerName, "."+metricsLoggerName) {
		return nil
	}
	c.Metrics().IncCounter(logEntriesMetric, metrics.Labels{"level": entry.Level.String()})
	return nil
}

func (c *Context) Resolver() *config.Resolver { return c.resolver }
func (c *Context) Logger() logging.Logger     { return c.logger }

// LoggerFor returns the named child logger, e.g. "cache" for "app.cache".
func (c *Context) LoggerFor(name string) logging.Logger {
	return c.loggers.GetLogger(name)
}

func (c *Context) Drivers() *registry.Registry[Driver] { return c.drivers }

// Objects is the registry for application-defined pluggable types.
func (c *Context) Objects() *registry.Registry[any] { return c.objects }

func (c *Context) Cache() cache.Cache                { return c.cache.Resolve() }
func (c *Context) Mail() mail.Sender                 { return c.mail.Resolve() }
func (c *Context) Metrics() metrics.Recorder         { return c.metrics.Resolve() }
func (c *Context) Diagnostics() diagnostics.Reporter { return c.diagnostics.Resolve() }
func (c *Context) Connection() store.Conn            { return c.connection.Resolve() }

func (c *Context) InstallCache(v cache.Cache)                { c.cache.Install(v) }
func (c *Context) InstallMail(v mail.Sender)                 { c.mail.Install(v) }
func (c *Context) InstallMetrics(v metrics.Recorder)         { c.metrics.Install(v) }
func (c *Context) InstallDiagnostics(v diagnostics.Reporter) { c.diagnostics.Install(v) }
func (c *Context) InstallConnection(v store.Conn)            { c.connection.Install(v) }

// Renderer returns the configured renderer. Unlike the other capabilities it
// has no null object.
func (c *Context) Renderer() (render.Renderer, error) {
	c.rendererMu.RLock()
	defer c.rendererMu.RUnlock()
	if c.renderer == nil {
		return nil, apperrors.NewCapabilityUnavailable("renderer")
	}
	return c.renderer, nil
}

func (c *Context) SetRenderer(r render.Renderer) {
	c.rendererMu.Lock()
	c.renderer = r
	c.rendererMu.Unlock()
}

// lazyRenderer defers the renderer lookup to render time so senders built
// during bootstrap see a renderer set later.
type lazyRenderer struct{ c *Context }

func (l lazyRenderer) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	r, err := l.c.Renderer()
	if err != nil {
		return "", err
	}
	return r.Render(ctx, name, params)
}

// Degraded lists the capabilities still served by their null object.
func (c *Context) Degraded() []capability.Name {
	var out []capability.Name
	for _, h := range []interface {
		Installed() bool
		Name() capability.Name
	}{c.cache, c.mail, c.metrics, c.diagnostics, c.connection} {
		if !h.Installed() {
			out = append(out, h.Name())
		}
	}
	return out
}

// Create builds an object registered under (category, variant) in Objects
// and asserts it to T.
func Create[T any](c *Context, category, variant string) (T, error) {
	return registry.CreateAs[T](c.objects, category, variant)
}

// Redis returns the shared client, opening it from the "redis" subtree on
// first use. Failed attempts are retried on the next call.
func (c *Context) Redis(ctx context.Context) (*redis.Client, error) {
	c.redisMu.Lock()
	defer c.redisMu.Unlock()

	if c.redisClient != nil {
		return c.redisClient, nil
	}
	client, err := redis_client.FromResolver(ctx, c.resolver, c.LoggerFor("redis"))
	if err != nil {
		return nil, err
	}
	c.redisClient = client
	c.addCloser(client)
	return client, nil
}

func (c *Context) addCloser(cl io.Closer) {
	c.closeMu.Lock()
	c.closers = append(c.closers, cl)
	c.closeMu.Unlock()
}

// Close releases resources opened by bootstrap drivers, newest first, then
// the log files opened for the "log" subtree.
func (c *Context) Close() error {
	c.closeMu.Lock()
	closers := c.closers
	c.closers = nil
	logFiles := c.logFiles
	c.logFiles = nil
	c.closeMu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = c.logger.Sync()
	if logFiles != nil {
		if err := logFiles.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
