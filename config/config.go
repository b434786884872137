package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Analyze AnalyzeConfig `mapstructure:"analyze"`
}

type GitHubConfig struct {
	Token     string  `mapstructure:"token"`
	BaseURL   string  `mapstructure:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit"` // Requests per second
	PerPage   int     `mapstructure:"per_page"`
	Workers   int     `mapstructure:"workers"` // Concurrent timeline downloads
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type AnalyzeConfig struct {
	Output  string `mapstructure:"output"`
	Workers int    `mapstructure:"workers"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		DataDir: "data",
		GitHub: GitHubConfig{
			RateLimit: 1, // the REST API allows 5000/hour; stay well under
			PerPage:   100,
			Workers:   4,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Analyze: AnalyzeConfig{
			Output:  "result.csv",
			Workers: runtime.NumCPU(),
		},
	}
}

// Load loads configuration from file, TIMELINE_* env vars and .env files.
// An empty path searches ./.timeline-analyzer/config.yaml and ./config.yaml.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("github.per_page", cfg.GitHub.PerPage)
	v.SetDefault("github.workers", cfg.GitHub.Workers)
	v.SetDefault("gemini.api_key", cfg.Gemini.APIKey)
	v.SetDefault("gemini.model", cfg.Gemini.Model)
	v.SetDefault("analyze.output", cfg.Analyze.Output)
	v.SetDefault("analyze.workers", cfg.Analyze.Workers)

	v.SetEnvPrefix("TIMELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".timeline-analyzer")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Analyze.Workers <= 0 {
		return fmt.Errorf("analyze.workers must be positive, got %d", c.Analyze.Workers)
	}
	if c.GitHub.RateLimit <= 0 {
		return fmt.Errorf("github.rate_limit must be positive, got %v", c.GitHub.RateLimit)
	}
	if c.GitHub.PerPage <= 0 || c.GitHub.PerPage > 100 {
		return fmt.Errorf("github.per_page must be in 1..100, got %d", c.GitHub.PerPage)
	}
	if c.GitHub.Workers <= 0 {
		return fmt.Errorf("github.workers must be positive, got %d", c.GitHub.Workers)
	}
	return nil
}

// loadEnvFiles loads .env files; earlier files win since godotenv never
// overrides variables that are already set.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env", filepath.Join(".timeline-analyzer", ".env")} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// applyEnvOverrides honours the conventional variable names used by the
// GitHub and Gemini tooling.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Gemini.Model = model
	}
}
