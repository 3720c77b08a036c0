package gateway

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the gateway configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	HLS     HLSConfig     `yaml:"hls"`
	Encoder EncoderConfig `yaml:"encoder"`
	Logging LoggingConfig `yaml:"logging"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type HLSConfig struct {
	ChunkCount    int     `yaml:"chunk_count"`
	ChunkDuration float64 `yaml:"chunk_duration"`
}

type EncoderConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	Bitrate    int    `yaml:"bitrate"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		HTTP:    HTTPConfig{Port: 8080},
		HLS:     HLSConfig{ChunkCount: 3, ChunkDuration: 2},
		Encoder: EncoderConfig{FFmpegPath: "ffmpeg", Bitrate: 2_000_000},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads the configuration from a yaml file.
// Fields absent from the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d (must be between 1-65535)", c.HTTP.Port)
	}

	if c.HLS.ChunkCount < 1 {
		return fmt.Errorf("invalid chunk_count: %d (must be positive)", c.HLS.ChunkCount)
	}

	if c.HLS.ChunkDuration <= 0 {
		return fmt.Errorf("invalid chunk_duration: %v (must be positive)", c.HLS.ChunkDuration)
	}

	if c.Encoder.Bitrate < 1 {
		return fmt.Errorf("invalid bitrate: %d (must be positive)", c.Encoder.Bitrate)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s (must be one of: %v)", c.Logging.Level, validLevels)
	}

	return nil
}

// GetSlogLevel returns slog.Level from config
func (c *Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
