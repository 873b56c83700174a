package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type ScraperConfig struct {
	UserAgent string `yaml:"userAgent"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type RodConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BrowserURL string `yaml:"browserURL"`
}

type RobotsConfig struct {
	Respect bool `yaml:"respect"`
}

type PlannerConfig struct {
	PageTextLimit     int     `yaml:"pageTextLimit"`
	MaxLinksInPrompt  int     `yaml:"maxLinksInPrompt"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"maxTokens"`
	ValidateDocuments bool    `yaml:"validateDocuments"`
}

type CrawlConfig struct {
	DelayMs          int   `yaml:"delayMs"`
	MaxDocumentBytes int64 `yaml:"maxDocumentBytes"`
}

type ClassifierConfig struct {
	ContentLimit   int     `yaml:"contentLimit"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"maxTokens"`
	VocabularyPath string  `yaml:"vocabularyPath"`
}

type AnalysisConfig struct {
	// TimeoutMs bounds a whole analysis when invoked through the API or
	// CLI. Zero leaves it unbounded.
	TimeoutMs int `yaml:"timeoutMs"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type LLMConfig struct {
	DefaultProvider string          `yaml:"defaultProvider"`
	TimeoutMs       int             `yaml:"timeoutMs"`
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Anthropic       AnthropicConfig `yaml:"anthropic"`
	Google          GoogleLLMConfig `yaml:"google"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"perMinute"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Rod        RodConfig        `yaml:"rod"`
	Robots     RobotsConfig     `yaml:"robots"`
	Planner    PlannerConfig    `yaml:"planner"`
	Crawl      CrawlConfig      `yaml:"crawl"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	LLM        LLMConfig        `yaml:"llm"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// SetDefaults fills zero values with the defaults used in production.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = defaultUserAgent
	}
	if c.Scraper.TimeoutMs == 0 {
		c.Scraper.TimeoutMs = 30000
	}
	if c.Planner.PageTextLimit == 0 {
		c.Planner.PageTextLimit = 4000
	}
	if c.Planner.MaxLinksInPrompt == 0 {
		c.Planner.MaxLinksInPrompt = 60
	}
	if c.Planner.Temperature == 0 {
		c.Planner.Temperature = 0.1
	}
	if c.Planner.MaxTokens == 0 {
		c.Planner.MaxTokens = 2000
	}
	if c.Crawl.DelayMs == 0 {
		c.Crawl.DelayMs = 1000
	}
	if c.Crawl.MaxDocumentBytes == 0 {
		c.Crawl.MaxDocumentBytes = 20 << 20
	}
	if c.Classifier.ContentLimit == 0 {
		c.Classifier.ContentLimit = 15000
	}
	if c.Classifier.Temperature == 0 {
		c.Classifier.Temperature = 0.1
	}
	if c.Classifier.MaxTokens == 0 {
		c.Classifier.MaxTokens = 4000
	}
	if c.LLM.DefaultProvider == "" {
		c.LLM.DefaultProvider = "openai"
	}
	if c.LLM.TimeoutMs == 0 {
		c.LLM.TimeoutMs = 120000
	}
	if c.LLM.OpenAI.Model == "" {
		c.LLM.OpenAI.Model = "gpt-4o-mini"
	}
	if c.LLM.Anthropic.Model == "" {
		c.LLM.Anthropic.Model = "claude-3-5-haiku-latest"
	}
	if c.LLM.Google.Model == "" {
		c.LLM.Google.Model = "gemini-1.5-flash"
	}
}

// ApplyEnv overrides secrets and a few deployment knobs from the
// environment so they never have to live in the yaml file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.OpenAI.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.Anthropic.APIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.LLM.Google.APIKey = v
	}
	if v := os.Getenv("SUBSIDYSCOUT_LLM_PROVIDER"); v != "" {
		c.LLM.DefaultProvider = v
	}
	if v := os.Getenv("SUBSIDYSCOUT_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("SUBSIDYSCOUT_VOCABULARY"); v != "" {
		c.Classifier.VocabularyPath = v
	}
}

// Load reads the yaml file at path (when it exists), loads a .env file
// from the working directory if present, applies environment overrides
// and fills defaults. An empty path yields a config built from the
// environment and defaults only.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config file: %w", err)
		default:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decode config: %w", err)
			}
		}
	}

	cfg.ApplyEnv()
	cfg.SetDefaults()
	return &cfg, nil
}

func (c *Config) ScraperTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutMs) * time.Millisecond
}

func (c *Config) CrawlDelay() time.Duration {
	if c.Crawl.DelayMs < 0 {
		return 0
	}
	return time.Duration(c.Crawl.DelayMs) * time.Millisecond
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutMs) * time.Millisecond
}

func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutMs) * time.Millisecond
}
