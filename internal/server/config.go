// internal/server/config.go
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort             = "1234"
	DefaultMaxClients       = 10
	DefaultHandshakeTimeout = 30 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Enabled reports whether an insults database was configured.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type Config struct {
	Port             string
	MaxClients       int
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	InsultSeed       int64
	DB               DBConfig
}

func DefaultConfig() Config {
	return Config{
		Port:             DefaultPort,
		MaxClients:       DefaultMaxClients,
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
	}
}

// LoadConfig reads the environment, after loading the given .env files (or
// ./.env when none are given). A missing .env file is not an error.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := DefaultConfig()
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		cfg.Port = port
	}

	var err error
	if cfg.MaxClients, err = envInt("MAX_CLIENTS", cfg.MaxClients); err != nil {
		return Config{}, err
	}
	if cfg.MaxClients < 1 {
		return Config{}, fmt.Errorf("MAX_CLIENTS must be at least 1, got %d", cfg.MaxClients)
	}
	if cfg.HandshakeTimeout, err = envDuration("HANDSHAKE_TIMEOUT", cfg.HandshakeTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = envDuration("WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return Config{}, err
	}
	seed, err := envInt("INSULT_SEED", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.InsultSeed = int64(seed)

	cfg.DB = DBConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
	}
	if cfg.DB.Enabled() && cfg.DB.Port == "" {
		cfg.DB.Port = "5432"
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, v)
	}
	return v, nil
}
