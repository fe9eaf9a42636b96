package agents

import (
	"context"
	"log/slog"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

// ─── Synthesizer ─────────────────────────────────────────────────────────────

// Synthesizer turns collected answers into an ordered workflow.
type Synthesizer struct {
	base
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{base: newBase(gw, r, logger)}
}

// Synthesize returns the workflow steps for answers. Output without any
// step yields dialogue.FallbackWorkflow; gateway failures are returned.
func (s *Synthesizer) Synthesize(ctx context.Context, goal string, answers []dialogue.Answer) ([]string, error) {
	out, err := s.complete(ctx, templates.Synthesize, templates.SynthesizeData{Goal: goal, Answers: answers})
	if err != nil {
		return nil, err
	}
	steps := dialogue.ParseSteps(out)
	if len(steps) == 0 {
		s.logger.Warn("workflow synthesis unparseable, using fallback workflow", "output", out)
		return dialogue.FallbackWorkflow(), nil
	}
	return steps, nil
}

// ─── Refiner ─────────────────────────────────────────────────────────────────

// WorkflowRefiner applies a user's modification request to a workflow.
type WorkflowRefiner struct {
	base
}

// NewWorkflowRefiner creates a WorkflowRefiner.
func NewWorkflowRefiner(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *WorkflowRefiner {
	return &WorkflowRefiner{base: newBase(gw, r, logger)}
}

// Refine returns the updated workflow. When the output contains no steps
// the original workflow is returned unchanged. An empty workflow is
// ErrNoWorkflow.
func (w *WorkflowRefiner) Refine(ctx context.Context, workflow []string, modification string) ([]string, error) {
	if len(workflow) == 0 {
		return nil, ErrNoWorkflow
	}
	out, err := w.complete(ctx, templates.RefineWorkflow, templates.RefineWorkflowData{
		Workflow:     workflow,
		Modification: modification,
	})
	if err != nil {
		return nil, err
	}
	steps := dialogue.ParseSteps(out)
	if len(steps) == 0 {
		w.logger.Warn("workflow refinement unparseable, keeping current workflow", "output", out)
		return append([]string(nil), workflow...), nil
	}
	return steps, nil
}
