package tools

import (
	"context"
	"strings"

	"github.com/janssja/happy2align/internal/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// TurnTool handles the align_turn MCP tool.
// It feeds one user message into a session and returns the assistant reply.
type TurnTool struct {
	conv   Conversation
	newKey func() string
}

// NewTurnTool creates a TurnTool over conv.
func NewTurnTool(conv Conversation) *TurnTool {
	return &TurnTool{conv: conv, newKey: orchestrator.NewSessionKey}
}

// Definition returns the MCP tool definition for registration.
func (t *TurnTool) Definition() mcp.Tool {
	return mcp.NewTool("align_turn",
		mcp.WithDescription(
			"Send the user's message to the requirements assistant and return its reply. "+
				"The first message of a session is treated as the goal; following messages "+
				"answer the assistant's questions until a workflow is produced, after which "+
				"messages edit that workflow. Reuse the returned session_key for every turn "+
				"of the same conversation.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's message, verbatim."),
		),
		mcp.WithString("session_key",
			mcp.Description("Conversation key. Omit to start a new session; the generated key is returned."),
		),
	)
}

// Handle processes the align_turn tool call.
func (t *TurnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}

	key := strings.TrimSpace(req.GetString("session_key", ""))
	if key == "" {
		key = t.newKey()
	}

	reply, err := t.conv.ProcessTurn(ctx, key, message)
	if err != nil {
		return mcp.NewToolResultError(t.conv.UserMessage(err)), nil
	}

	return mcp.NewToolResultText(reply.Text + footer(reply)), nil
}
