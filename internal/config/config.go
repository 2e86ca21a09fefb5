package config

import "time"

// Config holds relay server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// SweepInterval is how often the registry evicts empty rooms.
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	// HandshakeTimeout bounds the whole room handshake per connection.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	// AuthDelay is the uniform delay applied to every handshake outcome.
	AuthDelay time.Duration `mapstructure:"auth_delay" yaml:"auth_delay"`
	// MaxMessageBytes caps one inbound websocket message.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		SweepInterval:     5 * time.Minute,
		HandshakeTimeout:  5 * time.Second,
		AuthDelay:         time.Second,
		MaxMessageBytes:   32 << 20,
	}
}
