// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/copilot"
	"github.com/urfave/cli/v2"
)

// newEngine is replaced in tests.
var newEngine = func(cfg *copilot.Config, logger *slog.Logger) (*copilot.Engine, error) {
	return copilot.NewEngine(cfg, copilot.WithLogger(logger))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "copilot",
		Usage: "Answer questions from live web search results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "search-url",
				Usage: "SearXNG base URL (overrides search.url)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible host for chat and embeddings (overrides ai.chat_host and ai.embedding_host)",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Chat model name (overrides ai.chat_model)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides ai.embedding_model)",
			},
			&cli.StringFlag{
				Name:  "archive",
				Usage: "Directory for the persistent page summary archive (overrides archive.path)",
			},
			&cli.BoolFlag{
				Name:  "extract",
				Usage: "Fetch and summarize result pages before answering",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags:     runFlags(true),
			},
			{
				Name:   "chat",
				Usage:  "Interactive session with conversation history",
				Action: chatCommand,
				Flags:  runFlags(false),
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration as YAML",
				Action: configCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "defaults",
						Usage: "Print the built-in defaults and ignore --config",
					},
					&cli.BoolFlag{
						Name:  "show-secrets",
						Usage: "Print the API key instead of masking it",
					},
				},
			},
		},
	}
}

func runFlags(withJSON bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Usage:   "Optimization mode (speed, balanced, quality)",
			Value:   "balanced",
		},
		&cli.BoolFlag{
			Name:  "thinking",
			Usage: "Print model reasoning to stderr",
		},
		&cli.BoolFlag{
			Name:  "status",
			Usage: "Print stage progress to stderr",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "instructions",
			Usage: "Extra instructions appended to the answer prompt",
		},
	}
	if withJSON {
		flags = append(flags, &cli.BoolFlag{
			Name:  "json",
			Usage: "Print the result as a JSON document",
		})
	}
	return flags
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads --config (or the defaults) and applies the global
// override flags.
func loadConfig(c *cli.Context) (*copilot.Config, error) {
	cfg := copilot.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := copilot.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := c.String("search-url"); v != "" {
		cfg.Search.URL = v
	}
	if v := c.String("host"); v != "" {
		cfg.AI.ChatHost = v
		cfg.AI.EmbeddingHost = v
	}
	if v := c.String("chat-model"); v != "" {
		cfg.AI.ChatModel = v
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
	if v := c.String("archive"); v != "" {
		cfg.Archive.Path = v
	}
	if c.Bool("extract") {
		cfg.Pipeline.ExtractionEnabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openEngine(c *cli.Context) (*copilot.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	engine, err := newEngine(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	return engine, nil
}
