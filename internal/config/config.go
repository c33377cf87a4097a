// Package config loads server configuration.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. an optional YAML file (--config)
//  3. a .env file in the working directory, if present
//  4. the process environment
//
// Environment variables:
//
//	PORT, DB_DRIVER (sqlite|postgres), DB_PATH, DATABASE_URL,
//	JWT_SECRET, JWT_TTL, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
//	LOG_LEVEL (debug|info|warn|error), LOG_FORMAT (text|json)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting the server needs.
type Config struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`

	DBDriver    string `yaml:"db_driver" validate:"oneof=sqlite postgres"`
	DBPath      string `yaml:"db_path" validate:"required_if=DBDriver sqlite"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=DBDriver postgres"`

	JWTSecret string        `yaml:"jwt_secret" validate:"required,min=16"`
	JWTTTL    time.Duration `yaml:"jwt_ttl" validate:"gt=0"`

	// RedisAddr enables event publishing over Redis Pub/Sub when set.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing overrides it.
// JWTSecret has no default and must be provided.
func Default() Config {
	return Config{
		Port:      8080,
		DBDriver:  DriverSQLite,
		DBPath:    "./data/tabsettle.db",
		JWTTTL:    24 * time.Hour,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), .env and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	dotenv, err := godotenv.Read(".env")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	if err := cfg.applyEnv(lookup(dotenv)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown keys
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// lookup checks the process environment first, then the .env values.
func lookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val, true
		}
		val, ok := dotenv[key]
		return val, ok && val != ""
	}
}

func (c *Config) applyEnv(get func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_DRIVER":      &c.DBDriver,
		"DB_PATH":        &c.DBPath,
		"DATABASE_URL":   &c.DatabaseURL,
		"JWT_SECRET":     &c.JWTSecret,
		"REDIS_ADDR":     &c.RedisAddr,
		"REDIS_PASSWORD": &c.RedisPassword,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_FORMAT":     &c.LogFormat,
	}
	for key, dst := range strs {
		if val, ok := get(key); ok {
			*dst = val
		}
	}

	ints := map[string]*int{
		"PORT":     &c.Port,
		"REDIS_DB": &c.RedisDB,
	}
	for key, dst := range ints {
		if val, ok := get(key); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, val, err)
			}
			*dst = n
		}
	}

	if val, ok := get("JWT_TTL"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL %q: %w", val, err)
		}
		c.JWTTTL = d
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
