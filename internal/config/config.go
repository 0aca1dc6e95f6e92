package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		Tick          string `yaml:"tick"`
		SubmitTimeout string `yaml:"submit_timeout"`
	} `yaml:"quiz"`
	// Registrations seeds the in-memory registry when no Postgres is configured.
	Registrations []Registration `yaml:"registrations"`
}

type Registration struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
}

const DefaultChannel = "quiz:control"

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ControlChannel returns the configured pub/sub channel name.
func (c Config) ControlChannel() string {
	if c.Redis.Channel == "" {
		return DefaultChannel
	}
	return c.Redis.Channel
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}
