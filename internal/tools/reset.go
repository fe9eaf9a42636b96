package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResetTool handles the align_reset MCP tool.
type ResetTool struct {
	conv Conversation
}

// NewResetTool creates a ResetTool over conv.
func NewResetTool(conv Conversation) *ResetTool {
	return &ResetTool{conv: conv}
}

// Definition returns the MCP tool definition for registration.
func (t *ResetTool) Definition() mcp.Tool {
	return mcp.NewTool("align_reset",
		mcp.WithDescription(
			"Discard a session. The next align_turn with the same key starts over "+
				"with a new goal. Resetting an unknown key is not an error.",
		),
		mcp.WithString("session_key",
			mcp.Required(),
			mcp.Description("Conversation key to discard."),
		),
	)
}

// Handle processes the align_reset tool call.
func (t *ResetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := strings.TrimSpace(req.GetString("session_key", ""))
	if key == "" {
		return mcp.NewToolResultError("'session_key' is required"), nil
	}

	if err := t.conv.Reset(ctx, key); err != nil {
		return nil, fmt.Errorf("resetting session: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session `%s` was reset.", key)), nil
}
