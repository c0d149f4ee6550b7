package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	ChatModel    string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// DisableLLMChunkFilter force-disables the relevance filter for every
	// persona, regardless of the per-persona setting.
	DisableLLMChunkFilter bool `envconfig:"DISABLE_LLM_CHUNK_FILTER" default:"false"`

	// Retrieval budget defaults. DefaultNumChunks applies when a persona
	// omits num_chunks; MaxContextTokens is the hard ceiling on context fed
	// to the generative model.
	DefaultNumChunks int `envconfig:"DEFAULT_NUM_CHUNKS" default:"10"`
	MaxContextTokens int `envconfig:"MAX_CONTEXT_TOKENS" default:"4096"`

	// Recency decay tunables.
	DecayHalfLifeDays int     `envconfig:"DECAY_HALF_LIFE_DAYS" default:"365"`
	DecayFloor        float64 `envconfig:"DECAY_FLOOR" default:"0.1"`
	FavorRecentBoost  float64 `envconfig:"FAVOR_RECENT_BOOST" default:"2.0"`

	// Relevance filter dispatch limits.
	RelevanceConcurrency int           `envconfig:"RELEVANCE_CONCURRENCY" default:"5"`
	RelevanceTimeout     time.Duration `envconfig:"RELEVANCE_TIMEOUT" default:"10s"`

	// Retrieval log retention window for the background pruner.
	RetrievalLogRetentionDays int `envconfig:"RETRIEVAL_LOG_RETENTION_DAYS" default:"30"`

	// Bootstrap: create an initial API key on startup
	InitAPIKey string `envconfig:"INIT_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("AXON", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.DefaultNumChunks < 0 {
		return fmt.Errorf("DEFAULT_NUM_CHUNKS cannot be negative")
	}
	if c.MaxContextTokens <= 0 {
		return fmt.Errorf("MAX_CONTEXT_TOKENS must be positive")
	}
	if c.DecayHalfLifeDays <= 0 {
		return fmt.Errorf("DECAY_HALF_LIFE_DAYS must be positive")
	}
	if c.DecayFloor <= 0 || c.DecayFloor > 1 {
		return fmt.Errorf("DECAY_FLOOR must be in (0, 1]")
	}
	if c.FavorRecentBoost < 1 {
		return fmt.Errorf("FAVOR_RECENT_BOOST must be at least 1")
	}
	if c.RelevanceConcurrency <= 0 {
		return fmt.Errorf("RELEVANCE_CONCURRENCY must be positive")
	}
	return nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
