package agents

import (
	"context"
	"log/slog"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

// Requested shape of the requirement tree. The collector caps questions
// per subtopic on its own, so these only steer the prompt.
const (
	requestedSubtopics    = 5
	requestedMinQuestions = 3
	requestedMaxQuestions = 5
)

// Decomposer turns a goal into subtopics with clarifying questions.
type Decomposer struct {
	base
}

// NewDecomposer creates a Decomposer.
func NewDecomposer(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *Decomposer {
	return &Decomposer{base: newBase(gw, r, logger)}
}

// Decompose returns a non-empty requirement tree for goal. Unparseable
// output yields dialogue.FallbackSubtopics; gateway failures are returned.
func (d *Decomposer) Decompose(ctx context.Context, goal string) ([]dialogue.Subtopic, error) {
	out, err := d.complete(ctx, templates.Decompose, templates.DecomposeData{
		Goal:         goal,
		Subtopics:    requestedSubtopics,
		MinQuestions: requestedMinQuestions,
		MaxQuestions: requestedMaxQuestions,
	})
	if err != nil {
		return nil, err
	}

	subtopics := dialogue.ParseSubtopics(out)
	if len(subtopics) == 0 {
		d.logger.Warn("decomposition unparseable, using fallback subtopic", "output", out)
		return dialogue.FallbackSubtopics(), nil
	}
	d.logger.Debug("goal decomposed", "subtopics", len(subtopics))
	return subtopics, nil
}
