// Package config provides configuration loading and validation for the CLI and server.
//
// Values come from built-in defaults, an optional YAML or JSON file, and
// RESUME_SCORER_* environment variables, in increasing order of precedence.
// Nested keys map to env names with underscores: embedding.api_key becomes
// RESUME_SCORER_EMBEDDING_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/resume-scorer/internal/fetch"
	"github.com/jonathan/resume-scorer/internal/jobs"
	"github.com/jonathan/resume-scorer/internal/llm"
	"github.com/jonathan/resume-scorer/internal/matching"
	"github.com/jonathan/resume-scorer/internal/server/ratelimit"
	"github.com/jonathan/resume-scorer/internal/terms"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RESUME_SCORER"

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Log       LogConfig       `mapstructure:"log"`

	VocabularyPath     string `mapstructure:"vocabulary_path"`      // JSON override merged over the built-in tables
	ReportTemplatePath string `mapstructure:"report_template_path"` // HTML template replacing the built-in one
	ReportSchemaPath   string `mapstructure:"report_schema_path"`   // JSON Schema the CLI validates reports against
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int    `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigin string `mapstructure:"allowed_origin" validate:"required"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" validate:"oneof=gemini hash"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions" validate:"min=8,max=4096"`
	BatchSize  int    `mapstructure:"batch_size" validate:"min=1,max=100"`
}

// AnalysisConfig tunes keyword matching.
type AnalysisConfig struct {
	Threshold   float64 `mapstructure:"threshold" validate:"gt=0,lte=1"`
	MaxKeywords int     `mapstructure:"max_keywords" validate:"min=1,max=500"`
	// DualSource matches keywords against résumé lines as well as résumé terms.
	DualSource bool `mapstructure:"dual_source"`
}

// JobsConfig configures the background analysis runner.
type JobsConfig struct {
	MaxConcurrent int           `mapstructure:"max_concurrent" validate:"min=1,max=64"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	TTL           time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// RateLimitConfig limits analysis submissions per client IP.
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	AnalyzeLimit  int           `mapstructure:"analyze_limit" validate:"min=1"`
	AnalyzeWindow time.Duration `mapstructure:"analyze_window" validate:"gt=0"`
	Whitelist     []string      `mapstructure:"whitelist" validate:"dive,ip"`
}

// FetchConfig configures job-description fetching.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	BrowserTimeout time.Duration `mapstructure:"browser_timeout" validate:"gt=0"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origin", "http://localhost:3000")

	v.SetDefault("embedding.provider", string(llm.ProviderGemini))
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("embedding.batch_size", 100)

	v.SetDefault("analysis.threshold", matching.DefaultThreshold)
	v.SetDefault("analysis.max_keywords", terms.DefaultMaxKeywords)
	v.SetDefault("analysis.dual_source", true)

	v.SetDefault("jobs.max_concurrent", jobs.DefaultMaxConcurrent)
	v.SetDefault("jobs.timeout", jobs.DefaultJobTimeout)
	v.SetDefault("jobs.ttl", jobs.DefaultTTL)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.analyze_limit", ratelimit.DefaultAnalyzeLimit)
	v.SetDefault("rate_limit.analyze_window", ratelimit.DefaultAnalyzeWindow)
	v.SetDefault("rate_limit.whitelist", []string{})

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.cache_ttl", fetch.DefaultCacheTTL)
	v.SetDefault("fetch.browser_timeout", 60*time.Second)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	v.SetDefault("vocabulary_path", "")
	v.SetDefault("report_template_path", "")
	v.SetDefault("report_schema_path", "")
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply. The Gemini API key falls back to
// GEMINI_API_KEY.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

var validate = func() *validator.Validate {
	v := validator.New()
	// Report fields by their config key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return v
}()

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed the '%s' check (value: %v)", fieldPath(fe), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.VocabularyPath != "" {
		if _, err := os.Stat(c.VocabularyPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: vocabulary file not found: %s", c.VocabularyPath)
		}
	}
	if c.ReportTemplatePath != "" {
		if _, err := os.Stat(c.ReportTemplatePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.ReportTemplatePath)
		}
	}
	return nil
}

// fieldPath turns "Config.analysis.threshold" into "analysis.threshold".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

// LLM returns the embedding configuration for llm.NewEmbedder.
func (e EmbeddingConfig) LLM() *llm.Config {
	cfg := llm.DefaultGeminiConfig()
	if llm.Provider(e.Provider) == llm.ProviderHash {
		cfg = llm.DefaultHashConfig()
	}
	if e.Model != "" {
		cfg = cfg.WithModel(e.Model)
	}
	cfg.Dimensions = e.Dimensions
	cfg.BatchSize = e.BatchSize
	return cfg
}

// Limiter returns the rate limiter configuration.
func (r RateLimitConfig) Limiter() *ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	cfg.Enabled = r.Enabled
	cfg.Whitelist = ratelimit.IPSet(r.Whitelist)
	cfg.EndpointConfigs = ratelimit.AnalyzeEndpointConfigs(r.AnalyzeLimit, r.AnalyzeWindow)
	return cfg
}
