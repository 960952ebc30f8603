package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/pipeline"
	"github.com/urfave/cli/v2"
)

var errNoQuestion = errors.New("a question is required")

// renderOptions controls how an event stream is printed.
type renderOptions struct {
	out      io.Writer // Answer text and sources
	diag     io.Writer // Status and thinking
	status   bool
	thinking bool
	quiet    bool // Suppress all text output; used for --json
}

// outcome is the result of a finished run.
type outcome struct {
	RunID   string                `json:"run_id"`
	Query   string                `json:"query"`
	Mode    core.OptimizationMode `json:"mode"`
	Answer  string                `json:"answer"`
	Cached  bool                  `json:"cached"`
	Sources []source              `json:"sources"`
	Timings map[string]string     `json:"timings,omitempty"`
}

type source struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Score float64 `json:"score,omitempty"`
	Query string  `json:"query,omitempty"`
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errNoQuestion
	}
	mode, err := core.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	asJSON := c.Bool("json")
	opts := renderOptions{
		out:      c.App.Writer,
		diag:     c.App.ErrWriter,
		status:   c.Bool("status"),
		thinking: c.Bool("thinking"),
		quiet:    asJSON,
	}

	events := engine.Run(ctx, pipeline.Request{
		Query:              query,
		Mode:               mode,
		SystemInstructions: c.String("instructions"),
	})
	result, err := render(events, opts)
	if err != nil {
		return err
	}
	result.Query = query
	result.Mode = mode

	if asJSON {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return nil
}

// render consumes events until the terminal one. A failed run returns the
// run's error.
func render(events <-chan core.Event, opts renderOptions) (outcome, error) {
	var (
		result outcome
		answer strings.Builder
	)
	for ev := range events {
		result.RunID = ev.RunID
		switch ev.Type {
		case core.EventStatus:
			if opts.status && !opts.quiet {
				fmt.Fprintf(opts.diag, "» %s\n", ev.Message)
			}
		case core.EventThinking:
			if opts.thinking && !opts.quiet {
				fmt.Fprint(opts.diag, ev.Message)
			}
		case core.EventAnswerChunk:
			answer.WriteString(ev.Message)
			if !opts.quiet {
				fmt.Fprint(opts.out, ev.Message)
			}
		case core.EventError:
			if !opts.quiet && answer.Len() > 0 {
				fmt.Fprintln(opts.out)
				if ev.Retract {
					fmt.Fprintln(opts.out, "[incomplete answer discarded]")
				}
			}
			if ev.Err != nil {
				return result, ev.Err
			}
			return result, errors.New(ev.Message)
		case core.EventEnd:
			result.Answer = answer.String()
			result.Cached = ev.Cached
			result.Sources = make([]source, 0, len(ev.Sources))
			for _, doc := range ev.Sources {
				result.Sources = append(result.Sources, source{
					Title: doc.Title,
					URL:   doc.URL,
					Score: doc.Score,
					Query: doc.SourceQuery,
				})
			}
			if len(ev.Timings) > 0 {
				result.Timings = make(map[string]string, len(ev.Timings))
				for _, t := range ev.Timings {
					result.Timings[t.Stage.String()] = t.Duration.Round(time.Millisecond).String()
				}
			}
			if !opts.quiet {
				printSources(opts.out, result)
			}
			return result, nil
		}
	}
	// The stream always ends with a terminal event unless the consumer's
	// context was cancelled before it could be delivered.
	return result, context.Canceled
}

func printSources(w io.Writer, result outcome) {
	fmt.Fprintln(w)
	if len(result.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for i, s := range result.Sources {
			fmt.Fprintf(w, "  [%d] %s\n      %s\n", i+1, s.Title, s.URL)
		}
	}
	if result.Cached {
		fmt.Fprintln(w, "(cached answer)")
	}
}
