package agents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

var expertiseDirectives = map[dialogue.Expertise]string{
	dialogue.ExpertiseBeginner:     "Use simple, everyday language and include a concrete example.",
	dialogue.ExpertiseIntermediate: "Use standard terminology with brief clarification where it helps.",
	dialogue.ExpertiseExpert:       "Be concise and technical. Skip basic explanations.",
}

var sentimentDirectives = map[dialogue.Sentiment]string{
	dialogue.SentimentPositive: "Maintain the user's enthusiasm.",
	dialogue.SentimentNeutral:  "Keep a professional tone.",
	dialogue.SentimentNegative: "Be empathetic and acknowledge the user's concerns.",
	dialogue.SentimentMixed:    "Keep a professional tone.",
}

// ExpertiseDirective returns the tone instruction for e.
func ExpertiseDirective(e dialogue.Expertise) string {
	if d, ok := expertiseDirectives[e]; ok {
		return d
	}
	return expertiseDirectives[dialogue.ExpertiseIntermediate]
}

// SentimentDirective returns the tone instruction for s.
func SentimentDirective(s dialogue.Sentiment) string {
	if d, ok := sentimentDirectives[s]; ok {
		return d
	}
	return sentimentDirectives[dialogue.SentimentNeutral]
}

// QuestionRefiner rephrases a raw clarifying question for the user.
type QuestionRefiner struct {
	base
}

// NewQuestionRefiner creates a QuestionRefiner.
func NewQuestionRefiner(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *QuestionRefiner {
	return &QuestionRefiner{base: newBase(gw, r, logger)}
}

// Refine returns the adapted question, or raw when the gateway fails or
// returns nothing.
func (q *QuestionRefiner) Refine(ctx context.Context, subtopic, raw string, profile dialogue.Profile, transcript []dialogue.Turn) string {
	out, err := q.complete(ctx, templates.Question, templates.QuestionData{
		Subtopic:           subtopic,
		Question:           raw,
		ExpertiseDirective: ExpertiseDirective(profile.Expertise),
		SentimentDirective: SentimentDirective(profile.Sentiment),
		Conversation:       FormatConversation(transcript),
	})
	if err != nil {
		q.logger.Warn("question refinement unavailable, asking raw question", "error", err)
		return raw
	}
	if out = strings.TrimSpace(out); out == "" {
		return raw
	}
	return out
}
