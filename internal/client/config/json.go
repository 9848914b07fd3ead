package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/vikinglab/contentvault/internal/flagx"
	"github.com/vikinglab/contentvault/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "10s" and integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr       string         `json:"server_endpoint_addr"`
	CallbackListenAddr       string         `json:"callback_listen_addr"`
	CallbackBaseURL          string         `json:"callback_base_url"`
	NotificationWaitTimeout  timex.Duration `json:"notification_wait_timeout"`
	NotificationPollInterval timex.Duration `json:"notification_poll_interval"`
	QueryTimeout             timex.Duration `json:"query_timeout"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is given, nothing is
// loaded. A requested but broken config file panics: that is a startup error.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerEndpointAddr != "" {
		config.ServerEndpointAddr = c.ServerEndpointAddr
	}
	if c.CallbackListenAddr != "" {
		config.CallbackListenAddr = c.CallbackListenAddr
	}
	if c.CallbackBaseURL != "" {
		config.CallbackBaseURL = c.CallbackBaseURL
	}
	if c.NotificationWaitTimeout.Duration != 0 {
		config.NotificationWaitTimeout = time.Duration(c.NotificationWaitTimeout.Duration)
	}
	if c.NotificationPollInterval.Duration != 0 {
		config.NotificationPollInterval = time.Duration(c.NotificationPollInterval.Duration)
	}
	if c.QueryTimeout.Duration != 0 {
		config.QueryTimeout = time.Duration(c.QueryTimeout.Duration)
	}
}
