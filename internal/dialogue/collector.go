package dialogue

import (
	"errors"
	"fmt"
	"strings"
)

// --- Requirement collector state machine ---
//
//	INITIAL --Start--> COLLECTING --RecordAnswer (last)--> EXHAUSTED
//	EXHAUSTED --CompleteWorkflow--> WORKFLOW_READY --ReplaceWorkflow--> WORKFLOW_READY
//
// Every transition validates its precondition and leaves p untouched
// when it returns an error.

// ErrInvalidTransition is returned when a transition is attempted from
// the wrong phase or with unusable input.
var ErrInvalidTransition = errors.New("invalid transition")

// Start records the goal and the requirement tree and positions the
// collector on the first question.
func Start(p *Progress, goal string, subtopics []Subtopic) error {
	if p.Phase != PhaseInitial {
		return fmt.Errorf("%w: cannot start from phase %s", ErrInvalidTransition, p.Phase)
	}
	if len(subtopics) == 0 {
		return fmt.Errorf("%w: requirement tree is empty", ErrInvalidTransition)
	}
	for i, st := range subtopics {
		if len(st.Questions) == 0 {
			return fmt.Errorf("%w: subtopic %d %q has no questions", ErrInvalidTransition, i, st.Title)
		}
	}

	p.Goal = strings.TrimSpace(goal)
	p.Subtopics = append([]Subtopic(nil), subtopics...)
	p.SubtopicIndex = 0
	p.QuestionIndex = 0
	p.Phase = PhaseCollecting
	p.touch()
	return nil
}

// RecordAnswer stores text as the answer to the current question and
// advances: next question in the subtopic while under the cap, else the
// next subtopic, else EXHAUSTED.
func RecordAnswer(p *Progress, text string) error {
	st, question, err := p.CurrentQuestion()
	if err != nil {
		return err
	}

	p.Answers = append(p.Answers, Answer{
		SubtopicIndex: p.SubtopicIndex,
		QuestionIndex: p.QuestionIndex,
		Subtopic:      st.Title,
		Question:      question,
		Text:          strings.TrimSpace(text),
	})

	switch {
	case p.QuestionIndex < askable(st)-1:
		p.QuestionIndex++
	case p.SubtopicIndex < len(p.Subtopics)-1:
		p.SubtopicIndex++
		p.QuestionIndex = 0
	default:
		p.Phase = PhaseExhausted
	}
	p.touch()
	return nil
}

// CompleteWorkflow stores the first synthesized workflow.
func CompleteWorkflow(p *Progress, steps []string) error {
	if p.Phase != PhaseExhausted {
		return fmt.Errorf("%w: cannot complete workflow from phase %s", ErrInvalidTransition, p.Phase)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: workflow has no steps", ErrInvalidTransition)
	}
	p.Workflow = append([]string(nil), steps...)
	p.Phase = PhaseWorkflowReady
	p.touch()
	return nil
}

// ReplaceWorkflow swaps the workflow wholesale after a refinement.
func ReplaceWorkflow(p *Progress, steps []string) error {
	if p.Phase != PhaseWorkflowReady {
		return fmt.Errorf("%w: cannot refine workflow in phase %s", ErrInvalidTransition, p.Phase)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: workflow has no steps", ErrInvalidTransition)
	}
	p.Workflow = append([]string(nil), steps...)
	p.touch()
	return nil
}
