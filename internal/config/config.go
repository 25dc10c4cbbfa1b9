// Package config loads broker configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime settings for the chat broker.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `envconfig:"PORT" default:"8080"`

	// HistoryLimit bounds the number of messages retained for replay to joiners.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"100"`

	// TypingIdle is how long after the last typing signal the indicator clears.
	TypingIdle time.Duration `envconfig:"TYPING_IDLE" default:"1s"`

	// SendBuffer is the per-connection outbound queue size. A connection whose
	// queue stays full is force-closed rather than allowed to stall fan-out.
	SendBuffer int `envconfig:"SEND_BUFFER" default:"256"`

	// MaxMessageSize caps inbound frames in bytes; oversized frames close the
	// connection. This is also the effective message text length policy.
	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
}

// Load reads configuration from environment variables, applying defaults for
// anything unset.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
