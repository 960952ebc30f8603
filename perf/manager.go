package perf

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/copilot/cache"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/dedup"
	"github.com/poiesic/copilot/executor"
	"github.com/poiesic/copilot/timeout"
)

// Operation classes with adaptive timeouts.
const (
	ClassQueryGeneration = "query_generation"
	ClassSearch          = "search"
	ClassExtraction      = "extraction"
	ClassEmbedding       = "embedding"
	ClassSynthesis       = "synthesis"
)

// Config collects the configuration of every component.
type Config struct {
	Executor      executor.Config           `yaml:"executor"`
	Dedup         dedup.Config              `yaml:"dedup"`
	Timeouts      timeout.Config            `yaml:"timeouts"`
	ClassBounds   map[string]timeout.Bounds `yaml:"class_bounds"`
	AnswerCache   cache.Config              `yaml:"answer_cache"`
	DocumentCache cache.Config              `yaml:"document_cache"`
}

// DefaultConfig returns the default performance configuration.
func DefaultConfig() Config {
	return Config{
		Executor: executor.DefaultConfig(),
		Dedup:    dedup.DefaultConfig(),
		Timeouts: timeout.DefaultConfig(),
		ClassBounds: map[string]timeout.Bounds{
			ClassSynthesis:  {Base: 60 * time.Second, Max: 180 * time.Second},
			ClassExtraction: {Base: 30 * time.Second},
		},
		AnswerCache: cache.DefaultConfig(),
		DocumentCache: cache.Config{
			MaxSize:         1000,
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
	}
}

// Manager owns the performance components.
type Manager struct {
	Executor  *executor.Executor
	Dedup     *dedup.Deduplicator
	Timeouts  *timeout.Controller
	Answers   *cache.Cache[core.Answer]
	Documents *cache.Cache[[]core.SearchDocument]

	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates every component from cfg.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	exec, err := executor.New(cfg.Executor, executor.WithLogger(m.logger))
	if err != nil {
		return nil, fmt.Errorf("creating executor: %w", err)
	}
	m.Executor = exec

	var boundOpts []timeout.Option
	boundOpts = append(boundOpts, timeout.WithLogger(m.logger))
	for class, b := range cfg.ClassBounds {
		boundOpts = append(boundOpts, timeout.WithClassBounds(class, b))
	}
	timeouts, err := timeout.New(cfg.Timeouts, boundOpts...)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("creating timeout controller: %w", err)
	}
	m.Timeouts = timeouts

	m.Dedup = dedup.New(cfg.Dedup, dedup.WithLogger(m.logger))

	answers, err := cache.New("answers", cfg.AnswerCache,
		cache.WithSizer(answerSize), cache.WithLogger[core.Answer](m.logger))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("creating answer cache: %w", err)
	}
	m.Answers = answers

	documents, err := cache.New("documents", cfg.DocumentCache,
		cache.WithSizer(documentsSize), cache.WithLogger[[]core.SearchDocument](m.logger))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("creating document cache: %w", err)
	}
	m.Documents = documents

	return m, nil
}

// Close stops background goroutines and releases the worker pool.
func (m *Manager) Close() {
	if m.Answers != nil {
		m.Answers.Close()
	}
	if m.Documents != nil {
		m.Documents.Close()
	}
	if m.Dedup != nil {
		m.Dedup.Close()
	}
	if m.Executor != nil {
		m.Executor.Release()
	}
}

func documentSize(d core.SearchDocument) int {
	return len(d.Title) + len(d.URL) + len(d.Content) + len(d.SourceQuery)
}

func documentsSize(docs []core.SearchDocument) int {
	n := 0
	for _, d := range docs {
		n += documentSize(d)
	}
	return n
}

func answerSize(a core.Answer) int {
	return len(a.Query) + len(a.Text) + documentsSize(a.Sources)
}
