// Package prompts implements the MCP prompt handlers of the assistant.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the host AI to drive a sequence of tool calls. Unlike tools
// (which the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the align-start MCP prompt.
// It asks the host to open a requirements session for a goal and relay
// every question and answer through align_turn.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("align-start",
		mcp.WithPromptDescription(
			"Start clarifying a software idea. The assistant breaks the goal into "+
				"subtopics, asks focused questions one at a time and ends with a "+
				"step-by-step workflow you can keep refining.",
		),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What you want to build, in your own words."),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the align-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := ""
	if args := req.Params.Arguments; args != nil {
		goal = strings.TrimSpace(args["goal"])
	}

	opening := "Ask me what I want to build, then call `align_turn` with my answer as `message` and no `session_key`."
	if goal != "" {
		opening = fmt.Sprintf("Call `align_turn` with message=%q and no `session_key`.", goal)
	}

	return &mcp.GetPromptResult{
		Description: "Start a requirements session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to clarify the requirements of a software idea.\n\n" +
						"Please:\n" +
						"1. " + opening + "\n" +
						"2. Remember the `session_key` from the reply and pass it on every following call\n" +
						"3. Show me each question exactly as returned and send my answers back verbatim through `align_turn`\n" +
						"4. When the workflow appears, let me ask for changes and relay them through `align_turn` too\n" +
						"5. Use `align_status` if I ask where we are\n",
				),
			},
		},
	}, nil
}
