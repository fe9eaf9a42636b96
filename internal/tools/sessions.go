package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SessionsTool handles the align_sessions MCP tool.
type SessionsTool struct {
	conv Conversation
}

// NewSessionsTool creates a SessionsTool over conv.
func NewSessionsTool(conv Conversation) *SessionsTool {
	return &SessionsTool{conv: conv}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionsTool) Definition() mcp.Tool {
	return mcp.NewTool("align_sessions",
		mcp.WithDescription("List stored sessions, most recently updated first."),
	)
}

// Handle processes the align_sessions tool call.
func (t *SessionsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := t.conv.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No sessions stored."), nil
	}

	var b strings.Builder
	b.WriteString("| Session | Phase | Turns | Updated | Goal |\n")
	b.WriteString("|---------|-------|-------|---------|------|\n")
	for _, s := range list {
		fmt.Fprintf(&b, "| `%s` | %s | %d | %s | %s |\n",
			s.Key, s.Phase, s.Turns, s.UpdatedAt, truncate(s.Goal, 60))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
