// Package config handles configuration for the client component, including
// defaults, an optional JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the content vault client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - CallbackListenAddr: bind address for the local callback listener.
//   - CallbackBaseURL: URL prefix the server uses to reach the listener;
//     must resolve to CallbackListenAddr from the server's network.
//   - NotificationWaitTimeout: how long to wait for a push callback before
//     falling back to the pull query.
//   - NotificationPollInterval: how often to re-check the callback slot
//     while waiting.
//   - QueryTimeout: per-request timeout for pull queries.
type Config struct {
	ServerEndpointAddr       string
	CallbackListenAddr       string
	CallbackBaseURL          string
	NotificationWaitTimeout  time.Duration
	NotificationPollInterval time.Duration
	QueryTimeout             time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8080"
	c.CallbackListenAddr = ":8081"
	c.CallbackBaseURL = "http://localhost:8081"
	c.NotificationWaitTimeout = 10 * time.Second
	c.NotificationPollInterval = 500 * time.Millisecond
	c.QueryTimeout = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
