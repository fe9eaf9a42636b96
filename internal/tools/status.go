package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the align_status MCP tool.
type StatusTool struct {
	conv Conversation
}

// NewStatusTool creates a StatusTool over conv.
func NewStatusTool(conv Conversation) *StatusTool {
	return &StatusTool{conv: conv}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("align_status",
		mcp.WithDescription(
			"Show the phase and progress of a session: the goal, the current subtopic "+
				"and question, how many answers were collected, the user's profile and "+
				"the workflow once produced. Read-only.",
		),
		mcp.WithString("session_key",
			mcp.Required(),
			mcp.Description("Conversation key returned by align_turn."),
		),
	)
}

// Handle processes the align_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := strings.TrimSpace(req.GetString("session_key", ""))
	if key == "" {
		return mcp.NewToolResultError("'session_key' is required"), nil
	}

	st, err := t.conv.Status(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	if !st.Exists {
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Session Status\n\n**Session:** `%s`\n**Phase:** %s\n\n"+
				"No conversation yet. Send the goal with `align_turn` to start.",
			key, st.Phase,
		)), nil
	}

	var b strings.Builder
	b.WriteString("# Session Status\n\n")
	fmt.Fprintf(&b, "**Session:** `%s`\n", st.SessionKey)
	fmt.Fprintf(&b, "**Goal:** %s\n", st.Goal)
	fmt.Fprintf(&b, "**Phase:** %s\n", st.Phase)
	if st.Phase == dialogue.PhaseCollecting {
		fmt.Fprintf(&b, "**Progress:** %s\n",
			position(st.Subtopic, st.SubtopicIndex, st.QuestionIndex, st.TotalSubtopics))
	}
	fmt.Fprintf(&b, "**Answers:** %d of %d\n", st.Answered, st.PlannedQuestions)
	fmt.Fprintf(&b, "**Profile:** %s / %s\n", st.Profile.Expertise, st.Profile.Sentiment)
	fmt.Fprintf(&b, "**Turns:** %d\n", st.Turns)
	fmt.Fprintf(&b, "**Updated:** %s\n", st.UpdatedAt)

	if len(st.Workflow) > 0 {
		b.WriteString("\n## Workflow\n\n")
		b.WriteString(dialogue.FormatNumbered(st.Workflow))
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}
