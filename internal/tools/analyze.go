package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/mark3labs/mcp-go/mcp"
)

// Analyzer runs single agents outside any session.
type Analyzer interface {
	Decompose(ctx context.Context, goal string) ([]dialogue.Subtopic, error)
	EstimateProfile(ctx context.Context, text string) (dialogue.Profile, error)
	UserMessage(err error) string
}

// ─── align_decompose ─────────────────────────────────────────────────────────

// DecomposeTool handles the align_decompose MCP tool.
// It returns the subtopic tree for a goal without opening a session.
type DecomposeTool struct {
	an Analyzer
}

// NewDecomposeTool creates a DecomposeTool over an.
func NewDecomposeTool(an Analyzer) *DecomposeTool {
	return &DecomposeTool{an: an}
}

// Definition returns the MCP tool definition for registration.
func (t *DecomposeTool) Definition() mcp.Tool {
	return mcp.NewTool("align_decompose",
		mcp.WithDescription(
			"Break a software goal into subtopics with clarifying questions, "+
				"without starting a session. Nothing is stored.",
		),
		mcp.WithString("goal",
			mcp.Required(),
			mcp.Description("What the user wants to build."),
		),
	)
}

// Handle processes the align_decompose tool call.
func (t *DecomposeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goal := req.GetString("goal", "")
	if strings.TrimSpace(goal) == "" {
		return mcp.NewToolResultError("'goal' is required"), nil
	}

	subtopics, err := t.an.Decompose(ctx, goal)
	if err != nil {
		return mcp.NewToolResultError(t.an.UserMessage(err)), nil
	}

	var b strings.Builder
	b.WriteString("# Subtopics\n")
	for i, st := range subtopics {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, st.Title)
		for _, q := range st.Questions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── align_profile ───────────────────────────────────────────────────────────

// ProfileTool handles the align_profile MCP tool.
type ProfileTool struct {
	an Analyzer
}

// NewProfileTool creates a ProfileTool over an.
func NewProfileTool(an Analyzer) *ProfileTool {
	return &ProfileTool{an: an}
}

// Definition returns the MCP tool definition for registration.
func (t *ProfileTool) Definition() mcp.Tool {
	return mcp.NewTool("align_profile",
		mcp.WithDescription(
			"Estimate the sentiment (POSITIVE, NEUTRAL, NEGATIVE, MIXED) and technical "+
				"expertise (BEGINNER, INTERMEDIATE, EXPERT) of a piece of user text. "+
				"Falls back to NEUTRAL / INTERMEDIATE when the model is unavailable.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("User text to classify."),
		),
	)
}

// Handle processes the align_profile tool call.
func (t *ProfileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	prof, err := t.an.EstimateProfile(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(t.an.UserMessage(err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"**Sentiment:** %s\n**Expertise:** %s\n", prof.Sentiment, prof.Expertise,
	)), nil
}
