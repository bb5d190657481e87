package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Hook is called for each log entry that passes the level filter. Hook
// errors are ignored so that a failing hook never drops a log line.
type Hook func(entry zapcore.Entry) error

type hookCore struct {
	zapcore.Core
	hooks []Hook
}

func (c *hookCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *hookCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range c.hooks {
		_ = hook(entry)
	}
	return c.Core.Write(entry, fields)
}

func (c *hookCore) With(fields []zapcore.Field) zapcore.Core {
	return &hookCore{Core: c.Core.With(fields), hooks: c.hooks}
}

// WithHooks returns a Logger that runs hooks before writing each entry.
func WithHooks(logger Logger, hooks ...Hook) Logger {
	if len(hooks) == 0 {
		return logger
	}
	zl := logger.Zap()
	return FromZap(zl.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &hookCore{Core: core, hooks: hooks}
	})))
}
