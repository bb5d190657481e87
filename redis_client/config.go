package redis_client

import (
	"net"
	"time"
)

// Config is bound from the "redis" configuration subtree.
type Config struct {
	Host        string        `mapstructure:"host" json:"host" yaml:"host" toml:"host" default:"127.0.0.1"`
	Port        string        `mapstructure:"port" json:"port" yaml:"port" toml:"port" default:"6379"`
	Password    string        `mapstructure:"password" json:"password" yaml:"password" toml:"password"`
	DB          int           `mapstructure:"db" json:"db" yaml:"db" toml:"db" validate:"min=0,max=15"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout" toml:"dial_timeout" default:"5s"`
}

// Addr joins host and port, bracketing IPv6 hosts.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
