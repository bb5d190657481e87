// Package env_mode resolves the deployment mode from GO_ENV_MODE.
package env_mode

import (
	"os"
	"strings"
	"sync/atomic"
)

const ENV_MODE_KEY = "GO_ENV_MODE"

type ENV_MODE string

const (
	DevMode  ENV_MODE = "development"
	ProMode  ENV_MODE = "production"
	TestMode ENV_MODE = "test"
)

var current atomic.Pointer[ENV_MODE]

func ParseEnv(env string) ENV_MODE {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode returns the active mode, reading the environment on first use.
func Mode() ENV_MODE {
	if m := current.Load(); m != nil {
		return *m
	}
	m := ParseEnv(os.Getenv(ENV_MODE_KEY))
	current.CompareAndSwap(nil, &m)
	return *current.Load()
}

// SetMode overrides the active mode and exports it to child processes.
func SetMode(mode ENV_MODE) {
	current.Store(&mode)
	_ = os.Setenv(ENV_MODE_KEY, string(mode))
}

// Aliases lists the file suffixes a mode answers to, canonical name first.
func (m ENV_MODE) Aliases() []string {
	switch m {
	case ProMode:
		return []string{"production", "prod"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"development", "dev"}
	}
}

func (m ENV_MODE) IsDev() bool  { return m == DevMode }
func (m ENV_MODE) IsProd() bool { return m == ProMode }
func (m ENV_MODE) IsTest() bool { return m == TestMode }
