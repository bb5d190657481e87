package logging

import (
	"github.com/leeforge/support/capability"
	"go.uber.org/zap"
)

// global holds the process default logger. Until SetGlobal or Init is called
// it serves a terminal logger built from DefaultConfig.
var global = capability.NewHolder[Logger](capability.Logger, func() Logger {
	return NewLogger(DefaultConfig())
})

// Global returns the process default logger.
func Global() Logger {
	return global.Resolve()
}

// SetGlobal replaces the process default logger.
func SetGlobal(logger Logger) {
	global.Install(logger)
}

// Init builds a logger from config and installs it as the default.
func Init(config Config) Logger {
	l := NewLogger(config)
	SetGlobal(l)
	return l
}

func Debug(msg string, fields ...zap.Field) { Global().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Global().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Global().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Global().Error(msg, fields...) }

// Named creates a child of the default logger.
func Named(name string) Logger {
	return Global().Named(name)
}

// Sync flushes the default logger.
func Sync() error {
	return Global().Sync()
}
