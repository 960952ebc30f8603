package copilot

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/cache"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/executor"
	"github.com/poiesic/copilot/perf"
	"github.com/poiesic/copilot/pipeline"
	"github.com/poiesic/copilot/timeout"
	"github.com/poiesic/copilot/web"
	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration, usually loaded from YAML.
// Durations are written as Go duration strings ("15s", "1h").
type Config struct {
	AI       ai.Config       `yaml:"ai"`
	Search   SearchConfig    `yaml:"search"`
	Pipeline pipeline.Config `yaml:"pipeline"`
	Timeouts TimeoutConfig   `yaml:"timeouts"`
	Cache    CacheConfig     `yaml:"cache"`
	Executor executor.Config `yaml:"executor"`
	Dedup    dedup.Config    `yaml:"dedup"`
	Archive  ArchiveConfig   `yaml:"archive"`
}

// SearchConfig configures the SearXNG search provider and page fetcher.
type SearchConfig struct {
	// URL is the base URL of the SearXNG instance.
	URL string `yaml:"url"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxBodyBytes caps how much of a fetched page is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// TimeoutConfig configures adaptive timeouts. Classes overrides the
// bounds of individual operation classes (query_generation, search,
// extraction, embedding, synthesis).
type TimeoutConfig struct {
	timeout.Config `yaml:",inline"`
	Classes        map[string]timeout.Bounds `yaml:"classes"`
}

// CacheConfig configures the answer and document caches.
type CacheConfig struct {
	Answers   cache.Config `yaml:"answers"`
	Documents cache.Config `yaml:"documents"`
}

// ArchiveConfig configures the persistent page summary archive.
type ArchiveConfig struct {
	// Path is the archive directory. Empty disables the archive.
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	perfCfg := perf.DefaultConfig()
	return &Config{
		AI: *ai.DefaultConfig(),
		Search: SearchConfig{
			URL:            "http://localhost:8888",
			UserAgent:      web.DefaultUserAgent,
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   web.DefaultMaxBodyBytes,
		},
		Pipeline: pipeline.DefaultConfig(),
		Timeouts: TimeoutConfig{
			Config:  perfCfg.Timeouts,
			Classes: perfCfg.ClassBounds,
		},
		Cache: CacheConfig{
			Answers:   perfCfg.AnswerCache,
			Documents: perfCfg.DocumentCache,
		},
		Executor: perfCfg.Executor,
		Dedup:    perfCfg.Dedup,
	}
}

// LoadConfig reads a YAML configuration file. Settings missing from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration over the defaults and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section. AI hosts are normalized as a side effect.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if c.Search.URL == "" {
		return errors.New("search config: url is required")
	}
	if c.Search.RequestTimeout < 0 || c.Search.MaxBodyBytes < 0 {
		return errors.New("search config: request_timeout and max_body_bytes must not be negative")
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Executor.Validate(); err != nil {
		return fmt.Errorf("executor config: %w", err)
	}
	for name, cc := range map[string]cache.Config{"answers": c.Cache.Answers, "documents": c.Cache.Documents} {
		if cc.MaxSize < 1 {
			return fmt.Errorf("cache config %s: %w", name, cache.ErrInvalidSize)
		}
	}
	return nil
}

// Perf returns the performance layer configuration.
func (c *Config) Perf() perf.Config {
	return perf.Config{
		Executor:      c.Executor,
		Dedup:         c.Dedup,
		Timeouts:      c.Timeouts.Config,
		ClassBounds:   c.Timeouts.Classes,
		AnswerCache:   c.Cache.Answers,
		DocumentCache: c.Cache.Documents,
	}
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
