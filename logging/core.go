package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeEncoder formats timestamps with the configured prefix and layout.
func TimeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(config.Prefix + t.Format(config.TimeFormat))
	}
}

// GetEncoder returns a JSON or console encoder depending on config.Format.
func GetEncoder(config Config) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    config.ZapEncodeLevel(),
		EncodeTime:     TimeEncoder(config),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	return zapcore.NewConsoleEncoder(ec)
}

// buildCores creates one core per enabled level so that each level lands in
// its own rotated file. Terminal output, when enabled, is a single core.
func buildCores(config Config) ([]zapcore.Core, writerSet) {
	minLevel := config.TransportLevel()
	encoder := GetEncoder(config)

	var (
		cores  []zapcore.Core
		opened writerSet
	)
	if config.LogInTerminal {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(stdout), zap.NewAtomicLevelAt(minLevel)))
	}
	if config.LogToFile {
		for level := minLevel; level <= zapcore.FatalLevel; level++ {
			lvl := level
			writer := newLevelWriter(config, lvl.String())
			opened = append(opened, writer)
			cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.AddSync(writer),
				zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == lvl })))
		}
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewNopCore())
	}
	return cores, opened
}
