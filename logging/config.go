package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Director is the directory where log files are stored.
	Director string `mapstructure:"director" json:"director" yaml:"director"`

	// Level is the minimum log level (debug, info, warn, error, dpanic, panic, fatal).
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// Format is the log format (json or console).
	Format string `mapstructure:"format" json:"format" yaml:"format"`

	// EncodeLevel is the level encoder (lowercase, lowercase-color, capital, capital-color).
	EncodeLevel string `mapstructure:"encode-level" json:"encodeLevel" yaml:"encode-level"`

	// Prefix is prepended to every timestamp.
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`

	// TimeFormat uses Go time layout syntax.
	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format"`

	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal"`
	LogToFile     bool `mapstructure:"log-to-file" json:"logToFile" yaml:"log-to-file"`

	// Rotation settings, see lumberjack.Logger.
	MaxAge     int  `mapstructure:"max-age" json:"maxAge" yaml:"max-age"`
	MaxSize    int  `mapstructure:"max-size" json:"maxSize" yaml:"max-size"`
	MaxBackups int  `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups"`
	Compress   bool `mapstructure:"compress" json:"compress" yaml:"compress"`

	ShowLineNumber bool `mapstructure:"show-line-number" json:"showLineNumber" yaml:"show-line-number"`
}

// DefaultConfig returns a terminal-only JSON logger at info level.
func DefaultConfig() Config {
	return Config{
		Director:       "logs",
		Level:          "info",
		Format:         "json",
		EncodeLevel:    "lowercase",
		TimeFormat:     "2006/01/02 - 15:04:05",
		LogInTerminal:  true,
		LogToFile:      false,
		MaxAge:         7,
		MaxSize:        100,
		MaxBackups:     10,
		Compress:       true,
		ShowLineNumber: true,
	}
}

// TransportLevel converts the string level to zapcore.Level.
func (c Config) TransportLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.DebugLevel
	}
}

// ZapEncodeLevel returns the zapcore.LevelEncoder for EncodeLevel.
func (c Config) ZapEncodeLevel() zapcore.LevelEncoder {
	switch strings.ToLower(c.EncodeLevel) {
	case "lowercase-color":
		return zapcore.LowercaseColorLevelEncoder
	case "capital":
		return zapcore.CapitalLevelEncoder
	case "capital-color":
		return zapcore.CapitalColorLevelEncoder
	default:
		return zapcore.LowercaseLevelEncoder
	}
}

// applyDefaults fills empty fields from DefaultConfig. Boolean switches are
// left as given.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Director == "" {
		c.Director = d.Director
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = d.MaxBackups
	}
}
