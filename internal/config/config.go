// Package config loads service settings from .env, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/stylecoach/internal/bodyshape"
)

// PathEnv names the variable holding the YAML config path.
const PathEnv = "STYLECOACH_CONFIG"

// Config is the full service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Estimator  EstimatorConfig  `yaml:"estimator"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Session    SessionConfig    `yaml:"session"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" validate:"oneof=postgres sqlite"`
	DSN             string        `yaml:"dsn" validate:"required"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" validate:"gte=0"`
	SeedCatalog     bool          `yaml:"seed_catalog"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type EstimatorConfig struct {
	Addr    string        `yaml:"addr" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret" validate:"required"`
	JWTAudience string `yaml:"jwt_audience"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// ClassifierConfig selects the landmark schema, thresholds and sampling layout.
// Schema, when present, replaces the built-in topology named by PoseSchema.
type ClassifierConfig struct {
	PoseSchema    string            `yaml:"pose_schema" validate:"oneof=blazepose33 movenet17"`
	Schema        *bodyshape.Schema `yaml:"schema"`
	MinConfidence float64           `yaml:"min_confidence" validate:"gte=0,lte=1"`
	SeasonPolicy  string            `yaml:"season_policy" validate:"oneof=lab hybrid"`
	SampleRadius  int               `yaml:"sample_radius" validate:"gte=0,lte=10"`
	SampleIndices []int             `yaml:"sample_indices" validate:"omitempty,dive,gte=0,lt=468"`
}

// SessionConfig controls session lifetime and the streaming auto-trigger.
type SessionConfig struct {
	TTL               time.Duration `yaml:"ttl" validate:"gt=0"`
	AutoTriggerFrames int           `yaml:"auto_trigger_frames" validate:"gte=1"`
	StreamFPS         float64       `yaml:"stream_fps" validate:"gt=0"`
	StreamBurst       int           `yaml:"stream_burst" validate:"gte=1"`

	// AllowedOrigins lists the browser origins allowed to open the stream.
	// Empty keeps the same-origin check.
	AllowedOrigins []string `yaml:"allowed_origins" validate:"omitempty,dive,url"`
}

// Default returns the settings used for local development.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080", ShutdownTimeout: 15 * time.Second},
		Database: DatabaseConfig{
			Driver:          "postgres",
			DSN:             "host=postgres user=postgres password=postgres dbname=stylecoach port=5432 sslmode=disable",
			MaxIdleConns:    5,
			MaxOpenConns:    10,
			ConnMaxLifetime: time.Hour,
			SeedCatalog:     true,
		},
		Redis:     RedisConfig{Addr: "redis:6379"},
		Estimator: EstimatorConfig{Addr: "landmarks:50051", Timeout: 3 * time.Second},
		Auth:      AuthConfig{JWTSecret: "dev-secret"},
		Log:       LogConfig{Level: "info"},
		Classifier: ClassifierConfig{
			PoseSchema:    "blazepose33",
			MinConfidence: 0.5,
			SeasonPolicy:  "lab",
			SampleRadius:  3,
		},
		Session: SessionConfig{
			TTL:               30 * time.Minute,
			AutoTriggerFrames: 5,
			StreamFPS:         10,
			StreamBurst:       5,
		},
	}
}

// Load builds the configuration: defaults, then .env, then the YAML file named by
// STYLECOACH_CONFIG, then individual environment variables. The result is validated.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(PathEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Estimator.Addr = getEnv("LANDMARK_ESTIMATOR_ADDR", c.Estimator.Addr)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTAudience = getEnv("JWT_AUDIENCE", c.Auth.JWTAudience)
	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Classifier.PoseSchema = strings.ToLower(getEnv("POSE_SCHEMA", c.Classifier.PoseSchema))
	c.Classifier.SeasonPolicy = strings.ToLower(getEnv("SEASON_POLICY", c.Classifier.SeasonPolicy))
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Session.AllowedOrigins = splitList(origins)
	}

	var err error
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Classifier.MinConfidence, err = getEnvFloat("MIN_CONFIDENCE", c.Classifier.MinConfidence); err != nil {
		return err
	}
	if c.Classifier.SampleRadius, err = getEnvInt("SAMPLE_RADIUS", c.Classifier.SampleRadius); err != nil {
		return err
	}
	if c.Session.TTL, err = getEnvDuration("SESSION_TTL", c.Session.TTL); err != nil {
		return err
	}
	if c.Session.AutoTriggerFrames, err = getEnvInt("AUTO_TRIGGER_FRAMES", c.Session.AutoTriggerFrames); err != nil {
		return err
	}
	if c.Estimator.Timeout, err = getEnvDuration("LANDMARK_ESTIMATOR_TIMEOUT", c.Estimator.Timeout); err != nil {
		return err
	}
	return nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Classifier.Schema != nil {
		if err := c.Classifier.Schema.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
