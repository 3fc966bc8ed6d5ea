// Package config loads service settings from .env, an optional config.yaml and
// the process environment. Environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// Config holds all runtime settings.
type Config struct {
	App struct {
		Port          string `mapstructure:"port"`
		Environment   string `mapstructure:"environment"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	} `mapstructure:"app"`
	Firebase struct {
		ProjectID string `mapstructure:"project_id"`
	} `mapstructure:"firebase"`
	Store struct {
		Backend     string `mapstructure:"backend"`
		DatabaseURL string `mapstructure:"database_url"`
	} `mapstructure:"store"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	RateLimit struct {
		Availability int64         `mapstructure:"availability"`
		Window       time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`
	OTel struct {
		Endpoint    string  `mapstructure:"endpoint"`
		ServiceName string  `mapstructure:"service_name"`
		SampleRatio float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"otel"`
}

// IsDevelopment reports whether the service runs locally.
func (c Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

var envBindings = map[string]string{
	"app.port":                "PORT",
	"app.environment":         "APP_ENVIRONMENT",
	"app.public_base_url":     "PUBLIC_BASE_URL",
	"firebase.project_id":     "FIREBASE_PROJECT_ID",
	"store.backend":           "STORE_BACKEND",
	"store.database_url":      "DATABASE_URL",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"kafka.brokers":           "KAFKA_BROKERS",
	"kafka.topic":             "KAFKA_TOPIC",
	"rate_limit.availability": "AVAILABILITY_RATE_LIMIT",
	"rate_limit.window":       "AVAILABILITY_RATE_WINDOW",
	"otel.endpoint":           "OTEL_EXPORTER_OTLP_ENDPOINT",
	"otel.service_name":       "OTEL_SERVICE_NAME",
	"otel.sample_ratio":       "OTEL_TRACES_SAMPLER_ARG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.public_base_url", "http://localhost:8080")
	v.SetDefault("store.backend", BackendFirestore)
	v.SetDefault("kafka.topic", "profile.events")
	v.SetDefault("rate_limit.availability", 30)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("otel.service_name", "cv-builder")
	v.SetDefault("otel.sample_ratio", 1.0)
}

// Load reads .env (if present), then config.yaml from dir (if present), then
// the environment.
func Load(dir string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config.yaml: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.App.PublicBaseURL = strings.TrimRight(cfg.App.PublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendFirestore, BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.RateLimit.Availability <= 0 {
		return fmt.Errorf("AVAILABILITY_RATE_LIMIT must be positive, got %d", c.RateLimit.Availability)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("AVAILABILITY_RATE_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be within [0,1], got %v", c.OTel.SampleRatio)
	}
	return nil
}
