package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"draftmail/draft-service/internal/generator"
	"draftmail/pkg/config"
)

// GenerationConfig configures the model backend, prompt template and decoding.
type GenerationConfig struct {
	BaseURL       string  `yaml:"base_url"`
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model"`
	Template      string  `yaml:"template"`
	MaxNewTokens  int     `yaml:"max_new_tokens"`
	Temperature   float64 `yaml:"temperature"`
	TopP          float64 `yaml:"top_p"`
	Mode          string  `yaml:"mode"` // sampled | deterministic
	MaxConcurrent int64   `yaml:"max_concurrent"`
}

type Config struct {
	Env        string              `yaml:"-"`
	Server     config.ServerConfig `yaml:"server"`
	Log        config.LogConfig    `yaml:"log"`
	JWT        config.JWTConfig    `yaml:"jwt"`
	Generation GenerationConfig    `yaml:"generation"`
}

// Decoding returns the decoding parameters for the generator.
func (g GenerationConfig) Decoding() generator.Decoding {
	return generator.Decoding{
		MaxNewTokens: g.MaxNewTokens,
		Temperature:  g.Temperature,
		TopP:         g.TopP,
		Mode:         generator.Mode(g.Mode),
	}
}

func defaults() Config {
	d := generator.DefaultDecoding()
	return Config{
		Server: config.ServerConfig{Port: ":8000"},
		Log:    config.LogConfig{Level: "info"},
		Generation: GenerationConfig{
			BaseURL:       "http://localhost:8080/v1",
			Model:         "TinyLlama/TinyLlama-1.1B-Chat-v1.0",
			Template:      generator.DefaultTemplate,
			MaxNewTokens:  d.MaxNewTokens,
			Temperature:   d.Temperature,
			TopP:          d.TopP,
			Mode:          string(d.Mode),
			MaxConcurrent: 1,
		},
	}
}

// ServiceName names the config subdirectory of this service.
const ServiceName = "draft-service"

// Load reads the layered config from CONFIG_DIR/draft-service and the environment.
func Load() (*Config, error) {
	cfg := defaults()
	cfg.Env = config.GetConfigEnv()

	dir := filepath.Join(config.GetConfigDir(), ServiceName)
	if err := config.LoadInto(cfg.Env, dir, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.ClearUnresolved(&cfg.JWT.Secret, &cfg.Generation.APIKey)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideLogFromEnv(&cfg.Log)
	config.OverrideJWTFromEnv(&cfg.JWT)
	overrideGenerationFromEnv(&cfg.Generation)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideGenerationFromEnv(cfg *GenerationConfig) {
	if v := os.Getenv("GENERATION_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("GENERATION_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("GENERATION_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("GENERATION_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxConcurrent = n
		}
	}
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Generation.BaseURL == "" {
		errs = append(errs, errors.New("generation.base_url is required"))
	}
	if c.Generation.Model == "" {
		errs = append(errs, errors.New("generation.model is required"))
	}
	if c.Generation.MaxConcurrent < 1 {
		errs = append(errs, errors.New("generation.max_concurrent must be at least 1"))
	}
	if err := c.Generation.Decoding().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := generator.ParseTemplate(c.Generation.Template); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
