// Package agents holds the gateway-backed components of a conversation
// turn: router, profile estimator, topic decomposer, question refiner,
// workflow synthesizer and workflow refiner.
//
// Each component renders a prompt, calls the gateway and hands the text
// to a dialogue parser. The advisory components (router, profile,
// question refiner) never fail: they substitute defaults and log a
// warning. The structural components return gateway errors so the caller
// can fail the turn, and substitute fallback content when the text is
// unusable.
package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

// ErrNoWorkflow is returned when a workflow refinement is requested
// before any workflow exists.
var ErrNoWorkflow = errors.New("no workflow to refine")

// base carries the dependencies every component shares.
type base struct {
	gw       gateway.Completer
	renderer templates.Renderer
	logger   *slog.Logger
}

func newBase(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return base{gw: gw, renderer: r, logger: logger}
}

// complete renders template name and sends it to the gateway.
func (b base) complete(ctx context.Context, name string, data any) (string, error) {
	prompt, err := b.renderer.Render(name, data)
	if err != nil {
		return "", err
	}
	out, err := b.gw.Complete(ctx, gateway.Prompt(prompt))
	if err != nil {
		return "", fmt.Errorf("completing %s: %w", strings.TrimSuffix(name, ".md.tmpl"), err)
	}
	return out, nil
}

// Set bundles one instance of every component over a shared gateway.
type Set struct {
	Router     *Router
	Profile    *ProfileEstimator
	Decomposer *Decomposer
	Questions  *QuestionRefiner
	Synth      *Synthesizer
	Refiner    *WorkflowRefiner
}

// NewSet builds every component over gw.
func NewSet(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *Set {
	return &Set{
		Router:     NewRouter(gw, r, logger),
		Profile:    NewProfileEstimator(gw, r, logger),
		Decomposer: NewDecomposer(gw, r, logger),
		Questions:  NewQuestionRefiner(gw, r, logger),
		Synth:      NewSynthesizer(gw, r, logger),
		Refiner:    NewWorkflowRefiner(gw, r, logger),
	}
}

// FormatConversation renders the whole transcript as "role: content"
// lines, goal first.
func FormatConversation(transcript []dialogue.Turn) string {
	lines := make([]string, 0, len(transcript))
	for _, t := range transcript {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return strings.Join(lines, "\n")
}

func labels[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
