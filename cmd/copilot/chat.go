package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/copilot"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/pipeline"
	"github.com/urfave/cli/v2"
)

const chatHelp = `Commands:
  :stats [component]    show performance statistics
  :clear <component>    reset a component
  :cleanup [component]  remove expired entries
  :purge                delete the page summary archive
  :reset                forget the conversation history
  :help                 show this help
  :quit                 leave
Components: all, cache, answer-cache, document-cache, deduplicator, executor, timeouts`

// session is an interactive conversation against one engine.
type session struct {
	engine  *copilot.Engine
	mode    core.OptimizationMode
	extra   string
	history []core.ChatTurn
	render  renderOptions
	out     io.Writer
}

func chatCommand(c *cli.Context) error {
	mode, err := core.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	s := &session{
		engine: engine,
		mode:   mode,
		extra:  c.String("instructions"),
		out:    c.App.Writer,
		render: renderOptions{
			out:      c.App.Writer,
			diag:     c.App.ErrWriter,
			status:   c.Bool("status"),
			thinking: c.Bool("thinking"),
		},
	}
	fmt.Fprintf(s.out, "copilot (%s mode). Type :help for commands.\n", mode)
	return s.loop(c.Context, c.App.Reader)
}

func (s *session) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}
		s.ask(ctx, line)
	}
}

// ask runs one question. Interrupting it cancels only the current run.
func (s *session) ask(ctx context.Context, query string) {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	events := s.engine.Run(runCtx, pipeline.Request{
		Query:              query,
		History:            s.history,
		Mode:               s.mode,
		SystemInstructions: s.extra,
	})
	result, err := render(events, s.render)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	s.history = append(s.history,
		core.ChatTurn{Role: core.RoleUser, Content: query},
		core.ChatTurn{Role: core.RoleAssistant, Content: result.Answer},
	)
}

// command handles a ":" line and reports whether the session should end.
func (s *session) command(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		fmt.Fprintln(s.out, chatHelp)
		return false
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "h":
		fmt.Fprintln(s.out, chatHelp)
	case "reset":
		s.history = nil
		fmt.Fprintln(s.out, "history cleared")
	case "stats":
		snapshot, err := s.engine.Stats(arg)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintln(s.out, string(data))
	case "clear":
		if arg == "" {
			fmt.Fprintln(s.out, "usage: :clear <component>")
			return false
		}
		if err := s.engine.Clear(arg); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "cleared %s\n", arg)
	case "cleanup":
		n, err := s.engine.Cleanup(arg)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "removed %d entries\n", n)
	case "purge":
		if err := s.engine.PurgeArchive(ctx); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintln(s.out, "archive purged")
	default:
		fmt.Fprintf(s.out, "unknown command %q, type :help\n", fields[0])
	}
	return false
}
