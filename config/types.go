package config

import (
	"sync"

	"github.com/spf13/viper"
)

type Validator interface {
	Validate() error
}

type ConfigInterface interface {
	Bind(instance any) error
	Get(key string) any
	Snapshot() (map[string]any, error)
	Resolver() *Resolver
}

type Config struct {
	instance   *viper.Viper
	opts       ConfigOptions
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	// EnvFiles are dotenv files loaded into the process environment before
	// overrides are applied. Missing files are skipped.
	EnvFiles  []string
	WatchAble bool
	// OnChange receives a fresh Resolver each time a watched file changes.
	OnChange func(r *Resolver)
	LoadAll  bool
}
