// Package tools implements the MCP tool handlers of the assistant.
//
// Each tool is a struct that receives its dependencies (DIP) and exposes a
// Definition for registration and a Handle compatible with mcp-go's
// CallToolRequest signature. Expected failures are returned as tool error
// results so the host can show them; only broken plumbing is a Go error.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/orchestrator"
	"github.com/janssja/happy2align/internal/store"
)

// Conversation is what the tools need from the orchestrator.
type Conversation interface {
	ProcessTurn(ctx context.Context, key, message string) (*orchestrator.Reply, error)
	Status(ctx context.Context, key string) (*orchestrator.Status, error)
	Reset(ctx context.Context, key string) error
	Sessions(ctx context.Context) ([]store.Summary, error)
	UserMessage(err error) string
}

// position renders "subtopic X/Y, question Z" for a collecting session.
func position(subtopic string, subtopicIndex, questionIndex, total int) string {
	return fmt.Sprintf("subtopic %d/%d (%s), question %d",
		subtopicIndex+1, total, subtopic, questionIndex+1)
}

// footer summarizes session state below a reply.
func footer(r *orchestrator.Reply) string {
	var b strings.Builder
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "**Session:** `%s`\n", r.SessionKey)
	fmt.Fprintf(&b, "**Phase:** %s\n", r.Phase)
	if r.Phase == dialogue.PhaseCollecting {
		fmt.Fprintf(&b, "**Progress:** %s\n",
			position(r.Subtopic, r.SubtopicIndex, r.QuestionIndex, r.TotalSubtopics))
	}
	fmt.Fprintf(&b, "**Profile:** %s / %s\n", r.Profile.Expertise, r.Profile.Sentiment)
	if len(r.Workflow) > 0 {
		fmt.Fprintf(&b, "**Workflow steps:** %d\n", len(r.Workflow))
	}
	return b.String()
}
