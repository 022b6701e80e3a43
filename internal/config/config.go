package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		Mode            string `yaml:"mode"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	} `yaml:"rate_limit"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Redis struct {
		Addr        string `yaml:"addr"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		QuestionTTL string `yaml:"question_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionsPerSession int     `yaml:"questions_per_session"`
		TimeLimit           string  `yaml:"time_limit"`
		Grace               string  `yaml:"grace"`
		MinTimeTaken        float64 `yaml:"min_time_taken"`
		MaxTimeTaken        float64 `yaml:"max_time_taken"`
	} `yaml:"quiz"`
	Challenge struct {
		MaxParticipants int `yaml:"max_participants"`
	} `yaml:"challenge"`
	Questions struct {
		SeedFile string `yaml:"seed_file"`
	} `yaml:"questions"`
}

// Default returns the built-in settings. Every other source overrides these.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "release"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Server.ShutdownTimeout = "5s"
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	cfg.RateLimit.MaxRequests = 100
	cfg.RateLimit.Window = "15m"
	cfg.Log.Level = "info"
	cfg.Redis.QuestionTTL = "10m"
	cfg.Quiz.QuestionsPerSession = 20
	cfg.Quiz.TimeLimit = "15m"
	cfg.Quiz.Grace = "1m"
	cfg.Quiz.MinTimeTaken = 2
	cfg.Quiz.MaxTimeTaken = 1500
	cfg.Challenge.MaxParticipants = 25
	return cfg
}

// Load resolves the configuration once: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("PORT", &cfg.Server.Port)
	set("DATABASE_URL", &cfg.Postgres.URL)
	set("REDIS_ADDR", &cfg.Redis.Addr)
	set("REDIS_PASSWORD", &cfg.Redis.Password)
	set("LOG_LEVEL", &cfg.Log.Level)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Quiz.QuestionsPerSession <= 0 {
		errs = append(errs, errors.New("quiz.questions_per_session must be positive"))
	}
	if c.Quiz.MinTimeTaken < 0 || c.Quiz.MaxTimeTaken < c.Quiz.MinTimeTaken {
		errs = append(errs, fmt.Errorf("quiz time range [%v, %v] is invalid", c.Quiz.MinTimeTaken, c.Quiz.MaxTimeTaken))
	}
	if c.Challenge.MaxParticipants <= 0 {
		errs = append(errs, errors.New("challenge.max_participants must be positive"))
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate_limit.max_requests must be positive"))
	}
	for name, raw := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"rate_limit.window":       c.RateLimit.Window,
		"redis.question_ttl":      c.Redis.QuestionTTL,
		"quiz.time_limit":         c.Quiz.TimeLimit,
		"quiz.grace":              c.Quiz.Grace,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
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
