package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the align-status MCP prompt.
// It instructs the host to read and present a session's state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("align-status",
		mcp.WithPromptDescription(
			"Check where a requirements session stands: phase, current subtopic, "+
				"answers collected and the workflow once produced.",
		),
		mcp.WithArgument("session_key",
			mcp.ArgumentDescription("Session to inspect. Omit to list sessions."),
		),
	)
}

// Handle processes the align-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := "Call `align_sessions` and show me the table. Then ask which session I want to inspect and call `align_status` for it."
	if args := req.Params.Arguments; args != nil && args["session_key"] != "" {
		text = fmt.Sprintf(
			"Call `align_status` with session_key=%q and summarize the result for me. "+
				"If a question is pending, repeat it so I can answer.",
			args["session_key"],
		)
	}

	return &mcp.GetPromptResult{
		Description: "Requirements session status",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
