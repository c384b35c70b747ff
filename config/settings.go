// Package config loads whisperpoold's settings from a YAML file, a .env
// file, and the process environment, in that precedence order, following
// the same viper/godotenv layering the rest of the gokit family uses.
package config

import "fmt"

// WhisperServerConfig configures how each child inference process is
// spawned.
type WhisperServerConfig struct {
	Cmd       string `yaml:"cmd" mapstructure:"cmd"`
	Cwd       string `yaml:"cwd" mapstructure:"cwd"`
	Model     string `yaml:"model" mapstructure:"model"`
	Threads   int    `yaml:"threads" mapstructure:"threads"`
	ExtraArgs string `yaml:"extra_args" mapstructure:"extra_args"`
}

// HTTPConfig configures the outer HTTP surface.
type HTTPConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OTelConfig configures the OpenTelemetry exporters.
type OTelConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// Settings is the root configuration for whisperpoold.
type Settings struct {
	PoolSize        int                 `yaml:"pool_size" mapstructure:"pool_size"`
	RotateThreshold int                 `yaml:"rotate_threshold" mapstructure:"rotate_threshold"`
	StartingPort    int                 `yaml:"starting_port" mapstructure:"starting_port"`
	WhisperServer   WhisperServerConfig `yaml:"whisper_server" mapstructure:"whisper_server"`
	HTTP            HTTPConfig          `yaml:"http" mapstructure:"http"`
	Log             LogConfig           `yaml:"log" mapstructure:"log"`
	OTel            OTelConfig          `yaml:"otel" mapstructure:"otel"`
}

// ApplyDefaults fills unset fields with the same defaults pool.Config
// applies, so a Settings zero value is still a usable, if minimal,
// configuration.
func (s *Settings) ApplyDefaults() {
	if s.PoolSize <= 0 {
		s.PoolSize = 2
	}
	if s.RotateThreshold <= 0 {
		s.RotateThreshold = 1000
	}
	if s.StartingPort <= 0 {
		s.StartingPort = 8100
	}
	if s.HTTP.Addr == "" {
		s.HTTP.Addr = ":8080"
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "json"
	}
}

// Validate reports the one configuration failure the pool manager itself
// cannot recover from: no child command to spawn.
func (s *Settings) Validate() error {
	if s.WhisperServer.Cmd == "" {
		return fmt.Errorf("whisper_server.cmd is required")
	}
	return nil
}
