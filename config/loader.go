package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts file existence checks and .env loading so tests can
// substitute a fake without touching the real filesystem.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem against the OS.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderOption customizes Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// WithFileSystem overrides the filesystem used to resolve files, for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *loaderConfig) { lc.fs = fs }
}

// WithConfigFile pins an explicit config file path instead of searching.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile pins an explicit .env file path instead of searching.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

var configSearchPaths = []string{
	"./config.yml",
	"./config/config.yml",
	"../config/config.yml",
}

var envSearchPaths = []string{
	"./.env",
	"../.env",
}

// Load builds a Settings value by layering, in increasing precedence: the
// resolved YAML config file, a resolved .env file, and the process
// environment. Environment variables use viper's dotted-key auto-bind
// (WHISPERPOOL_POOL_SIZE -> pool_size, WHISPERPOOL_WHISPER_SERVER_CMD ->
// whisper_server.cmd) via SetEnvKeyReplacer.
func Load(opts ...LoaderOption) (*Settings, error) {
	lc := loaderConfig{fs: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	v.SetEnvPrefix("whisperpool")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv alone does not surface nested keys to Unmarshal; bind
	// every settings key explicitly so the environment can set it.
	for _, key := range []string{
		"pool_size", "rotate_threshold", "starting_port",
		"whisper_server.cmd", "whisper_server.cwd", "whisper_server.model",
		"whisper_server.threads", "whisper_server.extra_args",
		"http.addr", "http.auth_token", "log.level", "log.format",
		"otel.endpoint", "otel.insecure",
	} {
		_ = v.BindEnv(key)
	}

	if lc.configFile == "" {
		lc.configFile = firstExisting(lc.fs, configSearchPaths)
	}
	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", lc.configFile, err)
		}
	}

	if lc.envFile == "" {
		lc.envFile = firstExisting(lc.fs, envSearchPaths)
	}
	if lc.envFile != "" {
		if err := lc.fs.LoadEnv(lc.envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", lc.envFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	settings.ApplyDefaults()

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}
