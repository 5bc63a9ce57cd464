// Package config provides configuration management for chattersim.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for chattersim.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Playback PlaybackConfig `mapstructure:"playback"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// PlaybackConfig holds the simulation timing parameters, all in milliseconds
// unless noted. Defaults give the conversation a natural human pace.
type PlaybackConfig struct {
	SettleDelayMs         int `mapstructure:"settleDelayMs"`         // reset pause before the first item
	KeypadDelayMs         int `mapstructure:"keypadDelayMs"`         // keyboard pop-up simulation
	TypingIntervalMs      int `mapstructure:"typingIntervalMs"`      // per-character reveal speed
	SendHesitationMs      int `mapstructure:"sendHesitationMs"`      // pause between full reveal and send
	MediaSelectDelayMs    int `mapstructure:"mediaSelectDelayMs"`    // picking an attachment
	DeliveredDelayMs      int `mapstructure:"deliveredDelayMs"`      // sent -> delivered tick
	FriendTypingMs        int `mapstructure:"friendTypingMs"`        // friend typing indicator duration
	FriendViewingMs       int `mapstructure:"friendViewingMs"`       // dwell on incoming image/gif/sticker
	ReadingWordsPerMinute int `mapstructure:"readingWordsPerMinute"` // reading speed for incoming text
	MinReadingMs          int `mapstructure:"minReadingMs"`          // floor for the reading delay
	DefaultMeAudioMs      int `mapstructure:"defaultMeAudioMs"`      // outgoing audio fallback duration
	DefaultFriendAudioMs  int `mapstructure:"defaultFriendAudioMs"`  // incoming audio fallback duration
	DefaultFriendVideoMs  int `mapstructure:"defaultFriendVideoMs"`  // incoming video fallback duration
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
func detectDefaultLogFormat() string {
	if env := os.Getenv("CHATSIM_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "chattersim")
	v.SetDefault("nats.maxReconnects", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	// Playback timing defaults
	v.SetDefault("playback.settleDelayMs", 500)
	v.SetDefault("playback.keypadDelayMs", 300)
	v.SetDefault("playback.typingIntervalMs", 80)
	v.SetDefault("playback.sendHesitationMs", 500)
	v.SetDefault("playback.mediaSelectDelayMs", 700)
	v.SetDefault("playback.deliveredDelayMs", 300)
	v.SetDefault("playback.friendTypingMs", 1500)
	v.SetDefault("playback.friendViewingMs", 1500)
	v.SetDefault("playback.readingWordsPerMinute", 200)
	v.SetDefault("playback.minReadingMs", 1000)
	v.SetDefault("playback.defaultMeAudioMs", 2000)
	v.SetDefault("playback.defaultFriendAudioMs", 1000)
	v.SetDefault("playback.defaultFriendVideoMs", 2000)
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix CHATSIM_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory
// or /etc/chattersim/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("CHATSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/chattersim/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	p := &cfg.Playback
	if p.TypingIntervalMs <= 0 {
		errs = append(errs, "playback.typingIntervalMs must be positive")
	}
	if p.ReadingWordsPerMinute <= 0 {
		errs = append(errs, "playback.readingWordsPerMinute must be positive")
	}
	for name, val := range map[string]int{
		"playback.settleDelayMs":        p.SettleDelayMs,
		"playback.keypadDelayMs":        p.KeypadDelayMs,
		"playback.sendHesitationMs":     p.SendHesitationMs,
		"playback.mediaSelectDelayMs":   p.MediaSelectDelayMs,
		"playback.deliveredDelayMs":     p.DeliveredDelayMs,
		"playback.friendTypingMs":       p.FriendTypingMs,
		"playback.friendViewingMs":      p.FriendViewingMs,
		"playback.minReadingMs":         p.MinReadingMs,
		"playback.defaultMeAudioMs":     p.DefaultMeAudioMs,
		"playback.defaultFriendAudioMs": p.DefaultFriendAudioMs,
		"playback.defaultFriendVideoMs": p.DefaultFriendVideoMs,
	} {
		if val < 0 {
			errs = append(errs, name+" must be non-negative")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
