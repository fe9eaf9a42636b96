package dialogue

import (
	"errors"
	"fmt"
)

// MaxQuestionsPerSubtopic caps how many questions of one subtopic are asked,
// whatever the decomposer produced.
const MaxQuestionsPerSubtopic = 5

// ErrInvalidProgress is wrapped by every Validate failure.
var ErrInvalidProgress = errors.New("invalid progress")

// Progress is the full per-session state of a requirements conversation.
// Callers work on a Clone and persist it only after a turn has succeeded.
type Progress struct {
	Goal          string     `json:"goal,omitempty"`
	Phase         Phase      `json:"phase"`
	Subtopics     []Subtopic `json:"subtopics,omitempty"`
	SubtopicIndex int        `json:"current_subtopic_index"`
	QuestionIndex int        `json:"current_question_index"`
	Answers       []Answer   `json:"answers,omitempty"`
	Workflow      []string   `json:"workflow,omitempty"`
	Transcript    []Turn     `json:"transcript,omitempty"`
	Profile       Profile    `json:"profile"`
	Turns         int        `json:"turns"`
	CreatedAt     string     `json:"created_at"`
	UpdatedAt     string     `json:"updated_at"`
}

// NewProgress returns an empty session in the INITIAL phase.
func NewProgress() *Progress {
	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	return &Progress{
		Phase:     PhaseInitial,
		Profile:   DefaultProfile(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Subtopic question slices are shared
// because subtopics are immutable once created.
func (p *Progress) Clone() *Progress {
	c := *p
	c.Subtopics = append([]Subtopic(nil), p.Subtopics...)
	c.Answers = append([]Answer(nil), p.Answers...)
	c.Workflow = append([]string(nil), p.Workflow...)
	c.Transcript = append([]Turn(nil), p.Transcript...)
	return &c
}

// HasWorkflow reports whether a non-empty workflow exists.
func (p *Progress) HasWorkflow() bool {
	return len(p.Workflow) > 0
}

// AppendTurn adds a transcript entry and bumps UpdatedAt.
func (p *Progress) AppendTurn(role Role, content string) {
	p.Transcript = append(p.Transcript, Turn{Role: role, Content: content})
	p.touch()
}

// CurrentQuestion returns the subtopic and question the collector is
// waiting on. It fails outside the COLLECTING phase.
func (p *Progress) CurrentQuestion() (Subtopic, string, error) {
	if p.Phase != PhaseCollecting {
		return Subtopic{}, "", fmt.Errorf("%w: no current question in phase %s", ErrInvalidTransition, p.Phase)
	}
	st := p.Subtopics[p.SubtopicIndex]
	return st, st.Questions[p.QuestionIndex], nil
}

// PlannedQuestions is the number of questions the collector will ask
// over the whole tree, after the per-subtopic cap.
func (p *Progress) PlannedQuestions() int {
	n := 0
	for _, st := range p.Subtopics {
		n += askable(st)
	}
	return n
}

// Validate checks the structural invariants of the state.
func (p *Progress) Validate() error {
	if err := ValidatePhase(p.Phase); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProgress, err)
	}

	for i, st := range p.Subtopics {
		if len(st.Questions) == 0 {
			return fmt.Errorf("%w: subtopic %d %q has no questions", ErrInvalidProgress, i, st.Title)
		}
	}

	switch p.Phase {
	case PhaseInitial:
		if len(p.Subtopics) > 0 || len(p.Answers) > 0 {
			return fmt.Errorf("%w: INITIAL session already has a requirement tree", ErrInvalidProgress)
		}
	case PhaseCollecting:
		if p.SubtopicIndex < 0 || p.SubtopicIndex >= len(p.Subtopics) {
			return fmt.Errorf("%w: subtopic index %d out of range [0,%d)", ErrInvalidProgress, p.SubtopicIndex, len(p.Subtopics))
		}
		limit := askable(p.Subtopics[p.SubtopicIndex])
		if p.QuestionIndex < 0 || p.QuestionIndex >= limit {
			return fmt.Errorf("%w: question index %d out of range [0,%d)", ErrInvalidProgress, p.QuestionIndex, limit)
		}
	case PhaseWorkflowReady:
		if !p.HasWorkflow() {
			return fmt.Errorf("%w: WORKFLOW_READY session has no workflow", ErrInvalidProgress)
		}
	}

	if p.Phase != PhaseWorkflowReady && p.HasWorkflow() {
		return fmt.Errorf("%w: workflow set before WORKFLOW_READY (phase %s)", ErrInvalidProgress, p.Phase)
	}
	return nil
}

func (p *Progress) touch() {
	p.UpdatedAt = timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
}

// askable is the number of questions of st the collector will ask.
func askable(st Subtopic) int {
	return min(len(st.Questions), MaxQuestionsPerSubtopic)
}
