// Package server wires all components and creates the MCP server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"

	"github.com/janssja/happy2align/internal/config"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/orchestrator"
	"github.com/janssja/happy2align/internal/prompts"
	"github.com/janssja/happy2align/internal/resources"
	"github.com/janssja/happy2align/internal/store"
	"github.com/janssja/happy2align/internal/templates"
	"github.com/janssja/happy2align/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewStore opens the session store selected by cfg.Driver.
func NewStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverSQLite:
		return store.NewSQLite(cfg.DataDir)
	default:
		return nil, config.ValidateDriver(cfg.Driver)
	}
}

// NewGateway builds the primary model client and, when a fallback model is
// configured, chains the fallback behind it.
func NewGateway(cfg config.GatewayConfig, logger *slog.Logger) (gateway.Completer, error) {
	if cfg.APIKey == "" {
		logger.Warn("no API key configured; completions will fail", "env", cfg.APIKeyEnv)
	}

	primary, err := gateway.NewOpenAI(gateway.OpenAIOptions{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.PrimaryModel,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("creating primary model client: %w", err)
	}

	links := []gateway.Completer{primary}
	names := []string{primary.Model()}
	if cfg.FallbackModel != "" && cfg.FallbackModel != cfg.PrimaryModel {
		fallback, err := gateway.NewOpenAI(gateway.OpenAIOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.FallbackModel,
			Timeout:     cfg.FallbackTimeout,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("creating fallback model client: %w", err)
		}
		links = append(links, fallback)
		names = append(names, fallback.Model())
	}

	return gateway.NewChain(logger, cfg.Retries, links, names...), nil
}

// Build resolves the store, gateway and renderer and returns the
// orchestrator over them.
//
// The returned cleanup function closes the store and must be called on
// shutdown (typically via defer). It is always non-nil.
func Build(cfg config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, func(), error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	gw, err := NewGateway(cfg.Gateway, logger)
	if err != nil {
		return nil, noop, err
	}

	st, err := NewStore(cfg.Store)
	if err != nil {
		return nil, noop, fmt.Errorf("opening session store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("session store close", "error", err)
		}
	}

	o := orchestrator.New(st, gw, renderer,
		orchestrator.WithLogger(logger),
		orchestrator.WithLanguage(cfg.Language),
	)

	logger.Info("assistant ready",
		"store", cfg.Store.Driver,
		"primary_model", cfg.Gateway.PrimaryModel,
		"fallback_model", cfg.Gateway.FallbackModel,
		"language", cfg.Language,
	)
	return o, cleanup, nil
}

// New creates the MCP server with all tools, prompts and resources
// registered over a freshly built orchestrator.
func New(cfg config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	o, cleanup, err := Build(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	return NewMCPServer(o), cleanup, nil
}

// NewMCPServer registers the MCP surface over o.
func NewMCPServer(o *orchestrator.Orchestrator) *server.MCPServer {
	s := server.NewMCPServer(
		"happy2align",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Tools ---

	turnTool := tools.NewTurnTool(o)
	s.AddTool(turnTool.Definition(), turnTool.Handle)

	statusTool := tools.NewStatusTool(o)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	resetTool := tools.NewResetTool(o)
	s.AddTool(resetTool.Definition(), resetTool.Handle)

	sessionsTool := tools.NewSessionsTool(o)
	s.AddTool(sessionsTool.Definition(), sessionsTool.Handle)

	decomposeTool := tools.NewDecomposeTool(o)
	s.AddTool(decomposeTool.Definition(), decomposeTool.Handle)

	profileTool := tools.NewProfileTool(o)
	s.AddTool(profileTool.Definition(), profileTool.Handle)

	// --- Prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(o)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)
	s.AddResourceTemplate(resourceHandler.SessionTemplate(), resourceHandler.HandleSession)

	return s
}

func noop() {}

func serverInstructions() string {
	return `You have access to happy2align, a requirements assistant.

## WHEN TO USE IT

Suggest happy2align when the user describes a vague software idea and
wants to turn it into a concrete plan ("I want to build...", "we need an
app that...").

## HOW IT WORKS

1. Send the user's goal with align_turn and no session_key. Keep the
   session_key from the reply.
2. The assistant breaks the goal into subtopics and asks one question per
   turn. Show each question verbatim and send the user's answer back with
   align_turn and the same session_key. Do not answer on the user's behalf.
3. After the last question the reply contains a numbered workflow.
4. Further messages edit the workflow ("add a testing step", "merge steps
   2 and 3"). Relay them through align_turn.

Use align_status to see where a session stands and align_reset to start
over. If a turn fails, nothing was saved: retry the same message.

align_decompose and align_profile run the subtopic breakdown or the
sentiment/expertise estimate on their own, without a session.`
}
