package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/leeforge/support/cache"
	"github.com/leeforge/support/capability"
	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/render"
)

// bootOrder installs metrics before cache so an instrumented cache records
// into the configured backend.
var bootOrder = []capability.Name{
	capability.Metrics,
	capability.Diagnostics,
	capability.Connection,
	capability.Cache,
	capability.Mail,
}

// Bootstrap installs the capability drivers named under "<capability>.driver".
// A capability without a driver key keeps its null object and is logged as
// degraded. An unknown driver is an UnknownRegistryKey: it panics under the
// abort policy and is returned under propagate. Driver failures are always
// returned.
func (c *Context) Bootstrap(ctx context.Context) error {
	for _, name := range bootOrder {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bootstrap canceled: %w", err)
		}
		if err := c.bootCapability(ctx, name); err != nil {
			return err
		}
	}

	if c.resolver.Has("view.dir") {
		dir, err := c.resolver.GetString("view.dir")
		if err != nil {
			return err
		}
		ext, err := optionalString(c, "view.ext")
		if err != nil {
			return err
		}
		c.SetRenderer(render.NewFileRenderer(dir, ext))
	}

	for _, name := range c.Degraded() {
		c.logger.Warn("capability not configured, using null object", zap.String("capability", string(name)))
	}
	c.logger.Info("bootstrap completed", zap.Int("degraded", len(c.Degraded())))
	return nil
}

func (c *Context) bootCapability(ctx context.Context, name capability.Name) error {
	path := string(name) + ".driver"
	variant, err := c.resolver.GetString(path)
	if apperrors.IsType(err, apperrors.ErrorTypeConfigurationMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	driver, err := c.drivers.Create(string(name), variant)
	if err != nil {
		return err
	}
	v, err := driver(ctx, c)
	if err != nil {
		return apperrors.Wrap(err, fmt.Sprintf("%s driver %q failed", name, variant)).
			WithDetail("capability", string(name)).
			WithDetail("variant", variant)
	}
	if err := c.install(name, variant, v); err != nil {
		return err
	}

	c.logger.Info("capability installed", zap.String("capability", string(name)), zap.String("driver", variant))
	return nil
}

func (c *Context) install(name capability.Name, variant string, v any) error {
	var ok bool
	switch name {
	case capability.Cache:
		var impl cache.Cache
		if impl, ok = v.(cache.Cache); ok {
			instrumented, err := optionalBool(c, "cache.instrumented")
			if err != nil {
				return err
			}
			if instrumented {
				impl = cache.NewInstrumented(impl, c.Metrics(), variant)
			}
			c.cache.Install(impl)
		}
	case capability.Mail:
		ok = installAs(c.mail, v)
	case capability.Metrics:
		ok = installAs(c.metrics, v)
	case capability.Diagnostics:
		ok = installAs(c.diagnostics, v)
	case capability.Connection:
		ok = installAs(c.connection, v)
	}
	if !ok {
		return apperrors.NewInternal(fmt.Sprintf("%s driver built %T", name, v)).
			WithDetail("capability", string(name))
	}
	return nil
}

func installAs[T any](h *capability.Holder[T], v any) bool {
	impl, ok := v.(T)
	if ok {
		h.Install(impl)
	}
	return ok
}
