// Package resources implements the MCP resource handlers of the assistant.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (align://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/janssja/happy2align/internal/orchestrator"
	"github.com/janssja/happy2align/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// SessionsURI lists stored sessions.
	SessionsURI = "align://sessions"
	// SessionURITemplate addresses one session.
	SessionURITemplate = "align://sessions/{session_key}"

	sessionPrefix = SessionsURI + "/"
)

// Source is the read side of the orchestrator.
type Source interface {
	Status(ctx context.Context, key string) (*orchestrator.Status, error)
	Sessions(ctx context.Context) ([]store.Summary, error)
}

// Handler manages session resource endpoints.
type Handler struct {
	src Source
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(src Source) *Handler {
	return &Handler{src: src}
}

// SessionsResource returns the MCP resource definition for the session list.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		SessionsURI,
		"Sessions",
		mcp.WithResourceDescription("Stored requirements sessions, most recently updated first"),
		mcp.WithMIMEType("application/json"),
	)
}

// SessionTemplate returns the MCP resource template for a single session.
func (h *Handler) SessionTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		SessionURITemplate,
		"Session Status",
		mcp.WithTemplateDescription("Phase, progress counters, profile and workflow of one session"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleSessions returns the session list as JSON.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := h.src.Sessions(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if list == nil {
		list = []store.Summary{}
	}
	return jsonResource(req.Params.URI, list)
}

// HandleSession returns one session's status as JSON.
func (h *Handler) HandleSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	key := strings.TrimPrefix(req.Params.URI, sessionPrefix)
	if key == "" || key == req.Params.URI {
		return errorResource(req.Params.URI, "session key missing from URI"), nil
	}

	st, err := h.src.Status(ctx, key)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, st)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
