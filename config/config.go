package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Auth struct {
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
	TokenTTL  string `yaml:"tokenTTL"` // "6h"
}

type Rooms struct {
	MaxParticipants int `yaml:"maxParticipants"`
}

type Redis struct {
	Addr     string `yaml:"addr"` // пусто — relay работает в один инстанс
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Exec struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout string `yaml:"timeout"` // "30s"
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // collab-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Auth    Auth    `yaml:"auth"`
	Rooms   Rooms   `yaml:"rooms"`
	Redis   Redis   `yaml:"redis"`
	Exec    Exec    `yaml:"exec"`
	Logging Logging `yaml:"logging"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Auth.APIKey == "" {
		return errors.New("auth.apiKey is required")
	}
	if c.Auth.APISecret == "" {
		return errors.New("auth.apiSecret is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Rooms.MaxParticipants <= 0 {
		c.Rooms.MaxParticipants = 10
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "collab-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

func (c *Config) TokenTTL() time.Duration {
	return parseDurationOr(6*time.Hour, c.Auth.TokenTTL)
}

func (c *Config) ExecTimeout() time.Duration {
	return parseDurationOr(30*time.Second, c.Exec.Timeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
