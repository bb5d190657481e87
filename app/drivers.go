package app

import (
	"context"
	"fmt"

	"github.com/leeforge/support/cache"
	"github.com/leeforge/support/capability"
	"github.com/leeforge/support/diagnostics"
	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/mail"
	"github.com/leeforge/support/metrics"
	"github.com/leeforge/support/store"
)

// Driver builds the implementation of one capability. The value it returns
// must satisfy the capability's interface.
type Driver func(ctx context.Context, c *Context) (any, error)

// RegisterDriver makes d selectable as "<category>.driver: <variant>".
// Registering an existing pair replaces the built-in. A nil d panics.
func (c *Context) RegisterDriver(category capability.Name, variant string, d Driver) {
	if d == nil {
		panic(apperrors.NewInternal(fmt.Sprintf("app: nil driver for %s/%s", category, variant)))
	}
	c.drivers.Register(string(category), variant, func() Driver { return d })
}

func registerBuiltinDrivers(c *Context) {
	// null objects
	c.RegisterDriver(capability.Cache, "null", func(context.Context, *Context) (any, error) { return cache.NewNull(), nil })
	c.RegisterDriver(capability.Mail, "null", func(context.Context, *Context) (any, error) { return mail.NewNull(), nil })
	c.RegisterDriver(capability.Metrics, "null", func(context.Context, *Context) (any, error) { return metrics.NewNull(), nil })
	c.RegisterDriver(capability.Diagnostics, "null", func(context.Context, *Context) (any, error) { return diagnostics.NewNull(), nil })
	c.RegisterDriver(capability.Connection, "null", func(context.Context, *Context) (any, error) { return store.NewNullConn(), nil })

	c.RegisterDriver(capability.Cache, "memory", memoryCacheDriver)
	c.RegisterDriver(capability.Cache, "redis", redisCacheDriver)

	c.RegisterDriver(capability.Mail, "log", logMailDriver)
	c.RegisterDriver(capability.Mail, "smtp", smtpMailDriver)

	c.RegisterDriver(capability.Metrics, "collector", func(context.Context, *Context) (any, error) {
		return metrics.NewCollector(), nil
	})
	c.RegisterDriver(capability.Metrics, "prometheus", prometheusDriver)

	c.RegisterDriver(capability.Diagnostics, "log", func(_ context.Context, c *Context) (any, error) {
		return diagnostics.NewLogReporter(c.LoggerFor("diagnostics")), nil
	})

	c.RegisterDriver(capability.Connection, "memory", func(context.Context, *Context) (any, error) {
		return store.NewMemoryConn(), nil
	})
	c.RegisterDriver(capability.Connection, "redis", func(ctx context.Context, c *Context) (any, error) {
		client, err := c.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewRedisConn(client), nil
	})
}

func memoryCacheDriver(_ context.Context, c *Context) (any, error) {
	interval := cache.DefaultJanitorInterval
	if c.resolver.Has("cache.janitor_interval") {
		d, err := c.resolver.GetDuration("cache.janitor_interval")
		if err != nil {
			return nil, err
		}
		interval = d
	}
	m := cache.NewMemory(interval)
	c.addCloser(m)
	return m, nil
}

func redisCacheDriver(ctx context.Context, c *Context) (any, error) {
	client, err := c.Redis(ctx)
	if err != nil {
		return nil, err
	}
	prefix, err := optionalString(c, "cache.prefix")
	if err != nil {
		return nil, err
	}
	return cache.NewRedis(client, prefix, c.LoggerFor("cache")), nil
}

func logMailDriver(_ context.Context, c *Context) (any, error) {
	from, err := optionalString(c, "mail.from")
	if err != nil {
		return nil, err
	}
	return mail.NewLogSender(c.LoggerFor("mail"), from, lazyRenderer{c}), nil
}

func smtpMailDriver(_ context.Context, c *Context) (any, error) {
	var cfg mail.Config
	if err := c.resolver.Bind("mail", &cfg); err != nil {
		return nil, err
	}
	return mail.NewSMTPSender(cfg, c.LoggerFor("mail"), lazyRenderer{c})
}

func prometheusDriver(_ context.Context, c *Context) (any, error) {
	ns, err := optionalString(c, "metrics.namespace")
	if err != nil {
		return nil, err
	}
	return metrics.NewPrometheus(ns, c.LoggerFor("metrics")), nil
}

// optionalString resolves path, treating an absent key as "".
func optionalString(c *Context, path string) (string, error) {
	if !c.resolver.Has(path) {
		return "", nil
	}
	return c.resolver.GetString(path)
}

func optionalBool(c *Context, path string) (bool, error) {
	if !c.resolver.Has(path) {
		return false, nil
	}
	return c.resolver.GetBool(path)
}
