// Package config loads the pipeline configuration from defaults, an optional
// YAML file, and EPIHELIX_-prefixed environment variables, in that order of
// precedence.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("epihelix.yaml").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Retrieval RetrievalConfig `yaml:"retrieval" env:"RETRIEVAL"`
	Fusion    FusionConfig    `yaml:"fusion" env:"FUSION"`
	Rerank    RerankConfig    `yaml:"rerank" env:"RERANK"`
	Context   ContextConfig   `yaml:"context" env:"CONTEXT"`
	Session   SessionConfig   `yaml:"session" env:"SESSION"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Providers ProvidersConfig `yaml:"providers" env:"PROVIDERS"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// RetrievalConfig bounds the retrieval stage.
type RetrievalConfig struct {
	// CandidateLimit is how many candidates each retriever returns before
	// fusion.
	CandidateLimit int `yaml:"candidate_limit" env:"CANDIDATE_LIMIT"`
	// SemanticEnabled turns the semantic leg on. With it off the pipeline
	// runs keyword-only and never calls the embedding provider.
	SemanticEnabled bool `yaml:"semantic_enabled" env:"SEMANTIC_ENABLED"`
	DefaultPageSize int  `yaml:"default_page_size" env:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int  `yaml:"max_page_size" env:"MAX_PAGE_SIZE"`
}

// FusionConfig weights the two retrieval signals.
type FusionConfig struct {
	KeywordWeight  float64 `yaml:"keyword_weight" env:"KEYWORD_WEIGHT"`
	SemanticWeight float64 `yaml:"semantic_weight" env:"SEMANTIC_WEIGHT"`
}

// RerankConfig bounds the second-pass scoring stage.
type RerankConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	TopN       int  `yaml:"top_n" env:"TOP_N"`
	TextLength int  `yaml:"text_length" env:"TEXT_LENGTH"`
}

// ContextConfig bounds prompt context assembly.
type ContextConfig struct {
	TokenBudget  int     `yaml:"token_budget" env:"TOKEN_BUDGET"`
	HistoryShare float64 `yaml:"history_share" env:"HISTORY_SHARE"`
	MaxRelations int     `yaml:"max_relations" env:"MAX_RELATIONS"`
	// Estimator selects the token estimator: heuristic or tiktoken.
	Estimator string `yaml:"estimator" env:"ESTIMATOR"`
}

// SessionConfig selects and bounds the session store.
type SessionConfig struct {
	// Backend is memory or redis.
	Backend     string        `yaml:"backend" env:"BACKEND"`
	TTL         time.Duration `yaml:"ttl" env:"TTL"`
	MaxMessages int           `yaml:"max_messages" env:"MAX_MESSAGES"`
}

// RedisConfig holds the Redis connection settings for the redis session
// backend.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// ProvidersConfig holds the three model provider endpoints. An empty BaseURL
// selects the deterministic mock for that provider.
type ProvidersConfig struct {
	Embedding  ProviderConfig `yaml:"embedding" env:"EMBEDDING"`
	Rerank     ProviderConfig `yaml:"rerank" env:"RERANK"`
	Generation ProviderConfig `yaml:"generation" env:"GENERATION"`
}

// ProviderConfig holds one provider endpoint.
type ProviderConfig struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" env:"RETRY_BACKOFF"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// Dimensions is only read for the embedding provider.
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
}

// LogConfig holds the zap logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
}

// Loader builds a Config from defaults, file, and environment.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the EPIHELIX env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "EPIHELIX",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends an extra validation step.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration. Precedence: defaults, then YAML file,
// then environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv walks the struct and overrides tagged fields from
// PREFIX_SECTION_FIELD environment variables.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads the configuration or panics. Intended for main().
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Retrieval.CandidateLimit <= 0 {
		errs = append(errs, "candidate_limit must be positive")
	}
	if c.Retrieval.DefaultPageSize <= 0 || c.Retrieval.MaxPageSize <= 0 ||
		c.Retrieval.DefaultPageSize > c.Retrieval.MaxPageSize {
		errs = append(errs, "page sizes must be positive and default <= max")
	}
	if c.Fusion.KeywordWeight < 0 || c.Fusion.SemanticWeight < 0 ||
		c.Fusion.KeywordWeight+c.Fusion.SemanticWeight == 0 {
		errs = append(errs, "fusion weights must be non-negative and not both zero")
	}
	if c.Rerank.TopN <= 0 {
		errs = append(errs, "rerank top_n must be positive")
	}
	if c.Context.TokenBudget <= 0 {
		errs = append(errs, "context token_budget must be positive")
	}
	switch c.Context.Estimator {
	case "heuristic", "tiktoken":
	default:
		errs = append(errs, "context estimator must be heuristic or tiktoken")
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis session backend requires redis.addr")
		}
	default:
		errs = append(errs, "session backend must be memory or redis")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log level must be debug, info, warn or error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
