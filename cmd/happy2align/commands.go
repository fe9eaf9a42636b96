package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/mark3labs/mcp-go/server"

	"github.com/janssja/happy2align/internal/config"
	"github.com/janssja/happy2align/internal/logging"
	"github.com/janssja/happy2align/internal/orchestrator"
	alignserver "github.com/janssja/happy2align/internal/server"
)

// stdout receives command output; logs always go to stderr.
var stdout io.Writer = os.Stdout

// options are the global flags shared by every command.
type options struct {
	Config string `short:"c" long:"config" description:"Path to config.yaml (default ~/.happy2align/config.yaml)"`
}

func (o *options) load() (config.Config, *slog.Logger, error) {
	path := o.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// build loads the config and builds the assistant.
func (o *options) build() (*orchestrator.Orchestrator, func(), error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, func() {}, err
	}
	return alignserver.Build(cfg, logger)
}

func registerCommands(p *flags.Parser, opts *options) {
	add := func(name, short, long string, cmd flags.Commander) {
		if _, err := p.AddCommand(name, short, long, cmd); err != nil {
			panic(err)
		}
	}
	add("serve", "Start the MCP server", "Serve the assistant over MCP stdio.", &serveCmd{opts: opts})
	add("turn", "Send one message", "Process one user message and print the reply.", &turnCmd{opts: opts})
	add("status", "Show a session", "Print the phase and progress of a session as JSON.", &statusCmd{opts: opts})
	add("reset", "Discard a session", "Delete a session so the next turn starts over.", &resetCmd{opts: opts})
	add("sessions", "List sessions", "List stored sessions, most recently updated first.", &sessionsCmd{opts: opts})
	add("init", "Write the default config", "Write a default config file unless one exists.", &initCmd{opts: opts})
	add("version", "Print the version", "Print the version.", &versionCmd{})
}

// ─── serve ───────────────────────────────────────────────────────────────────

type serveCmd struct {
	opts *options
}

func (c *serveCmd) Execute([]string) error {
	cfg, logger, err := c.opts.load()
	if err != nil {
		return err
	}

	s, cleanup, err := alignserver.New(cfg, logger)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("serving MCP over stdio", "version", alignserver.Version)
	return server.ServeStdio(s)
}

// ─── turn ────────────────────────────────────────────────────────────────────

type turnCmd struct {
	opts    *options
	Session string `short:"s" long:"session" description:"Session key; a new one is generated when omitted"`
	Args    struct {
		Message []string `positional-arg-name:"MESSAGE" required:"1"`
	} `positional-args:"yes"`
}

func (c *turnCmd) Execute([]string) error {
	o, cleanup, err := c.opts.build()
	defer cleanup()
	if err != nil {
		return err
	}

	key := strings.TrimSpace(c.Session)
	if key == "" {
		key = orchestrator.NewSessionKey()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reply, err := o.ProcessTurn(ctx, key, strings.Join(c.Args.Message, " "))
	if err != nil {
		return errors.New(o.UserMessage(err))
	}

	fmt.Fprintln(stdout, reply.Text)
	fmt.Fprintf(stdout, "\n[session %s, phase %s]\n", reply.SessionKey, reply.Phase)
	return nil
}

// ─── status / reset / sessions ───────────────────────────────────────────────

type statusCmd struct {
	opts    *options
	Session string `short:"s" long:"session" description:"Session key" required:"yes"`
}

func (c *statusCmd) Execute([]string) error {
	o, cleanup, err := c.opts.build()
	defer cleanup()
	if err != nil {
		return err
	}

	st, err := o.Status(context.Background(), c.Session)
	if err != nil {
		return err
	}
	return printJSON(st)
}

type resetCmd struct {
	opts    *options
	Session string `short:"s" long:"session" description:"Session key" required:"yes"`
}

func (c *resetCmd) Execute([]string) error {
	o, cleanup, err := c.opts.build()
	defer cleanup()
	if err != nil {
		return err
	}

	if err := o.Reset(context.Background(), c.Session); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "session %s reset\n", c.Session)
	return nil
}

type sessionsCmd struct {
	opts *options
}

func (c *sessionsCmd) Execute([]string) error {
	o, cleanup, err := c.opts.build()
	defer cleanup()
	if err != nil {
		return err
	}

	list, err := o.Sessions(context.Background())
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(stdout, "%s\t%s\t%d\t%s\t%s\n", s.Key, s.Phase, s.Turns, s.UpdatedAt, s.Goal)
	}
	return nil
}

// ─── init / version ──────────────────────────────────────────────────────────

type initCmd struct {
	opts *options
}

func (c *initCmd) Execute([]string) error {
	path := c.opts.Config
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "config: %s\n", path)
	return nil
}

type versionCmd struct{}

func (c *versionCmd) Execute([]string) error {
	fmt.Fprintf(stdout, "happy2align v%s\n", alignserver.Version)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
