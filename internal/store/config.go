package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		// DSN may be overridden by the DATABASE_URL env var so secrets stay
		// out of the config file.
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI or NONE
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
	News struct {
		Enabled      bool     `yaml:"enabled"`
		Topics       []string `yaml:"topics"`
		MaxHeadlines int      `yaml:"max_headlines"`
		CacheMinutes int      `yaml:"cache_minutes"`
	} `yaml:"news"`
	Broker struct {
		Exchange string `yaml:"exchange"`
	} `yaml:"broker"`
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn cannot be empty (set it or DATABASE_URL)")
	}
	if c.LLM.Provider != "OPENAI" && c.LLM.Provider != "NONE" {
		return fmt.Errorf("invalid llm.provider '%s': must be 'OPENAI' or 'NONE'", c.LLM.Provider)
	}
	if c.News.MaxHeadlines < 0 {
		return fmt.Errorf("news.max_headlines must be >= 0, got %d", c.News.MaxHeadlines)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:4000", "http://127.0.0.1:4000"}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NONE"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 600
	}
	if len(c.News.Topics) == 0 {
		c.News.Topics = []string{"nifty"}
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 6
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 60
	}
	if c.Broker.Exchange == "" {
		c.Broker.Exchange = "NSE"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
