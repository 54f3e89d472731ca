// Package config loads harvester settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"challenge-harvester/internal/llm"
	"challenge-harvester/pkg/logger"
)

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Log      logger.Config  `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
	Retries     int     `yaml:"retries"`
}

type PipelineConfig struct {
	// Delay is the minimum spacing between generation calls.
	Delay string `yaml:"delay"`
	Burst int    `yaml:"burst"`
	// SmartMerge asks the generator to reconcile title collisions.
	SmartMerge bool `yaml:"smart_merge"`
}

type ScraperConfig struct {
	ListingURL string `yaml:"listing_url"`
	OutputDir  string `yaml:"output_dir"`
	FilePrefix string `yaml:"file_prefix"`
	Browser    bool   `yaml:"browser"`
	Headless   bool   `yaml:"headless"`
	ControlURL string `yaml:"control_url"`

	// ListingWaitSelector must render before the listing is read. Detail
	// pages wait for DetailWaitSelector, or for the load event when empty.
	ListingWaitSelector string `yaml:"listing_wait_selector"`
	DetailWaitSelector  string `yaml:"detail_wait_selector"`

	// Delay is the minimum spacing between page fetches.
	Delay          string `yaml:"delay"`
	RequestTimeout string `yaml:"request_timeout"`
	SizeCap        int64  `yaml:"size_cap"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   llm.DefaultModel,
			Timeout: "60s",
			Retries: 1,
		},
		Pipeline: PipelineConfig{
			Delay:      "200ms",
			Burst:      1,
			SmartMerge: true,
		},
		Scraper: ScraperConfig{
			ListingURL:          "https://www.spaceappschallenge.org/nasa-space-apps-2024/challenges/",
			OutputDir:           ".",
			FilePrefix:          "nasa_challenges_",
			Browser:             true,
			Headless:            true,
			ListingWaitSelector: `div[class*="challenge-index_results"]`,
			Delay:               "500ms",
			RequestTimeout:      "30s",
			SizeCap:             5 * 1024 * 1024,
		},
		Log:    logger.DefaultConfig(),
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("MODEL_NAME"); model != "" {
		c.LLM.Model = model
	}
	if dir := os.Getenv("CHALLENGE_OUTPUT_DIR"); dir != "" {
		c.Scraper.OutputDir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate checks what a generation-backed command needs.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("generation API key not configured (set GEMINI_API_KEY or llm.api_key)")
	}
	for name, v := range map[string]string{
		"llm.timeout":             c.LLM.Timeout,
		"pipeline.delay":          c.Pipeline.Delay,
		"scraper.delay":           c.Scraper.Delay,
		"scraper.request_timeout": c.Scraper.RequestTimeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) LLMTimeout() time.Duration {
	return durationOr(c.LLM.Timeout, 60*time.Second)
}

func (c *Config) CallDelay() time.Duration {
	return durationOr(c.Pipeline.Delay, 200*time.Millisecond)
}

func (c *Config) ScrapeDelay() time.Duration {
	return durationOr(c.Scraper.Delay, 500*time.Millisecond)
}

func (c *Config) RequestTimeout() time.Duration {
	return durationOr(c.Scraper.RequestTimeout, 30*time.Second)
}

func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// GeminiConfig converts the llm section for llm.NewGemini.
func (c *Config) GeminiConfig() llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLMTimeout(),
	}
}
