package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverJSONFile = "jsonfile"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port            string   `yaml:"port"`
		ReadTimeout     string   `yaml:"read_timeout"`
		WriteTimeout    string   `yaml:"write_timeout"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Auth struct {
		Secret   string `yaml:"secret"`
		Issuer   string `yaml:"issuer"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Storage struct {
		Driver   string `yaml:"driver"`
		SeedPath string `yaml:"seed_path"`
		Path     string `yaml:"path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Quiz struct {
		// TTL bounds how long questions stay in the cache.
		TTL                  string `yaml:"ttl"`
		DefaultQuestionCount int    `yaml:"default_question_count"`
		MaxQuestionCount     int    `yaml:"max_question_count"`
		BattleDuration       string `yaml:"battle_duration"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. Environment references like ${AUTH_SECRET} are expanded first.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
		if c.Postgres.URL != "" {
			c.Storage.Driver = DriverPostgres
		}
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "quiz-session-service"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "quiz.events"
	}
	if c.Quiz.DefaultQuestionCount == 0 {
		c.Quiz.DefaultQuestionCount = 10
	}
	if c.Quiz.MaxQuestionCount == 0 {
		c.Quiz.MaxQuestionCount = 100
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret is required"))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverJSONFile:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the jsonfile driver"))
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Quiz.DefaultQuestionCount < 1 || c.Quiz.DefaultQuestionCount > c.Quiz.MaxQuestionCount {
		errs = append(errs, errors.New("quiz.default_question_count must be between 1 and quiz.max_question_count"))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
