package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from a yaml file
// and overridable by environment variables for deployment secrets.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	Assistant AssistantConfig `yaml:"assistant"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type StorageConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Bucket          string        `yaml:"bucket"`
	BasePath        string        `yaml:"base_path"`
	ForcePathStyle  bool          `yaml:"force_path_style"`
	Timeout         time.Duration `yaml:"timeout"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// DispatchConfig bounds external transport calls
type DispatchConfig struct {
	TransportTimeout time.Duration `yaml:"transport_timeout"`
}

// AssistantConfig enables the assistant endpoint. UserID is the account
// assistant replies are posted as; the endpoint stays unregistered when
// it is empty.
type AssistantConfig struct {
	UserID  string        `yaml:"user_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// SweeperConfig controls the periodic reconciliation pass
type SweeperConfig struct {
	Interval         time.Duration `yaml:"interval"`
	SessionStaleAge  time.Duration `yaml:"session_stale_age"`
	QueuedRetryAge   time.Duration `yaml:"queued_retry_age"`
	PresenceCacheTTL time.Duration `yaml:"presence_cache_ttl"`
}

// DSN builds the MySQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Load reads a yaml config file and applies env var overrides
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Env: "local"},
		Database: DatabaseConfig{
			Host: "localhost", Port: 3306, User: "root", Name: "joblink_chat",
			MaxOpenConns: 25, MaxIdleConns: 5,
		},
		Redis:   RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		Storage: StorageConfig{Region: "auto", Timeout: 10 * time.Second},
		JWT:     JWTConfig{Expiry: 24 * time.Hour},
		Dispatch: DispatchConfig{
			TransportTimeout: 5 * time.Second,
		},
		Assistant: AssistantConfig{
			Timeout: 15 * time.Second,
		},
		Sweeper: SweeperConfig{
			Interval:         time.Minute,
			SessionStaleAge:  30 * time.Minute,
			QueuedRetryAge:   5 * time.Minute,
			PresenceCacheTTL: 5 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("S3_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKeyID = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretAccessKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}
