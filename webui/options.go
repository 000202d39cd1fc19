package webui

import (
	"time"

	"github.com/agothe/agothe/core/environment"
)

type Config struct {
	Environment       *environment.Environment
	ApiKeys           []string
	BroadcastInterval time.Duration
}

type Option func(*Config)

func NewConfig(opts ...Option) *Config {
	c := &Config{
		BroadcastInterval: 2 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func WithEnvironment(env *environment.Environment) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithApiKeys enables API-key auth on every route when at least one key is
// given.
func WithApiKeys(keys ...string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

// WithBroadcastInterval sets how often overview snapshots are pushed to
// SSE clients.
func WithBroadcastInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.BroadcastInterval = interval
		}
	}
}
